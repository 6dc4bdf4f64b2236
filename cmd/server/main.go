package main

import "github.com/nguyentranbao-ct/product-hub/cmd"

func main() {
	cmd.Execute()
}
