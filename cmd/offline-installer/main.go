package main

import "github.com/ccdc-opensource/conda-offline-installer/cmd/offline-installer/cmd"

func main() {
	cmd.Execute()
}
