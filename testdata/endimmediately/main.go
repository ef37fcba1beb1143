// Command endimmediately exits the moment it starts, for exercising the
// launch->resume->wait-for-exit path with nothing else going on. Ported
// from original_source/test/targets' end_immediately target.
package main

func main() {}
