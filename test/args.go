// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package test

// ComposeFile is the docker compose project file of the test harness,
// relative to the package directories using it.
const ComposeFile = "../test/docker-compose.yaml"

// DcTestUpArgs specifies docker compose CLI args for setting up the test
// harness: a "test" center container attached to the networks net_A and
// net_B, alongside two "foo" and a single "bar" service containers.
var DcTestUpArgs = []string{
	"-f", ComposeFile,
	"up",
	"-d",
	"--scale", "foo=2",
}

// DcTestDnArgs specifies docker compose CLI args for tearing down the test
// harness.
var DcTestDnArgs = []string{
	"-f", ComposeFile,
	"down",
	"-t", "1",
}
