/*
Package verifier implements a host reachability verifier that probes each host
once for HTTPS/HTTP reachability, using a [probe.Prober].

Optionally, the individual addresses of hosts are verified, too, by pinging
them. Address verification is cached in order to avoid expensive duplicate IP
address verification when multiple hosts share addresses. The concrete IP
address verification is then carried out by a [ping.Pinger].
*/
package verifier
