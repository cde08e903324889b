// Command statsengine runs the statistics engine: the HTTP ingest API with
// its worker pool and scheduler, plus one-shot maintenance commands.
package main

func main() {
	Execute()
}
