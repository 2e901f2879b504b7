// SPDX-License-Identifier: MPL-2.0

// Command gantry packages and runs Python web applications in containers.
package main

import cmd "gantry/cmd/gantry"

func main() {
	cmd.Execute()
}
