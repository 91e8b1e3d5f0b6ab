// Package winpath reverts the PATH registry mutations the Windows
// distribution installer performs during an unattended install. The entry
// filtering is pure string manipulation and portable; the registry access
// and WM_SETTINGCHANGE broadcast are Windows-only.
//
// The registry editing has no transactional safety: a failure between the
// per-user and machine keys leaves PATH partially cleaned.
package winpath
