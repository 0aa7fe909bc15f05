// Command listbench stresses a harrislist.List with a configurable workload
// and optionally verifies the final contents against an operation log.
package main

func main() {
	Execute()
}
