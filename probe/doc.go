/*
Package probe determines whether a domain is reachable over HTTPS or HTTP
within a time budget.

A [Prober] first sends a GET request to “https://domain”. Any response at all,
with a status code of 100 or more, counts as reachable: even 4xx and 5xx
responses prove that a server is there and speaks the protocol. Only if the
HTTPS attempt fails, a second GET request to “http://domain” is sent. Both
attempts are strictly sequential and each gets its own full timeout.

	prober := probe.New(probe.NewClient())
	outcome := prober.ProbeDomain(ctx, "example.org", 5*time.Second)
	if outcome.Success {
	    fmt.Println("reachable via", outcome.Protocol)
	}

Probe failures are reported as unsuccessful [types.ProbeOutcome] values, never
as errors.
*/
package probe
