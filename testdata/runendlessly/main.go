// Command runendlessly loops forever, for exercising process::attach
// against an already-running process. Ported from original_source/test/
// targets' run_endlessly target.
package main

func main() {
	for {
	}
}
