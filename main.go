package main

import "github.com/notargets/odb2vtk/cmd"

func main() {
	cmd.Execute()
}
