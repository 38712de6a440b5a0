package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// askConfirmation reads a yes/no answer from in; force answers yes
// without prompting.
func askConfirmation(in io.Reader, message string, force bool) bool {
	if force {
		return true
	}
	fmt.Printf("%s (y/N): ", message)
	response, _ := bufio.NewReader(in).ReadString('\n')
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}
