// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dig

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadHosts returns the host names listed in r, one per line. Empty lines and
// lines starting with “#” are skipped, as are trailing “# ...” comments.
func ReadHosts(r io.Reader) ([]string, error) {
	hosts := []string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		hosts = append(hosts, strings.Fields(line)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read host list: %w", err)
	}
	return hosts, nil
}

// ReadHostsFile returns the host names listed in the named file, see also
// [ReadHosts].
func ReadHostsFile(name string) ([]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("cannot open host list: %w", err)
	}
	defer f.Close()
	return ReadHosts(f)
}

// UniqueHosts returns the host names with empty names and duplicates removed,
// keeping the order of first appearance. Host names are compared
// case-insensitively and without any trailing dot, but are returned as given.
func UniqueHosts(hosts []string) []string {
	seen := map[string]struct{}{}
	unique := []string{}
	for _, host := range hosts {
		host = strings.TrimSpace(host)
		key := strings.ToLower(strings.TrimSuffix(host, "."))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, host)
	}
	return unique
}
