// Command synopsis is the CLI front end for the ASDP prioritization engine:
// ingest data products into a catalogue, run the MMR planner over it, and
// inspect the resulting catalogue and provenance history.
package main

func main() {
	Execute()
}
