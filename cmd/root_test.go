package cmd

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

func TestDebugfRespectsVerboseFlag(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)
	defer func() { verbose = false }()

	verbose = false
	debugf("hidden %d", 1)
	if buf.Len() != 0 {
		t.Errorf("debugf wrote %q without --verbose", buf.String())
	}

	verbose = true
	debugf("shown %d", 2)
	if !strings.Contains(buf.String(), "shown 2") {
		t.Errorf("debugf output %q, want it to contain %q", buf.String(), "shown 2")
	}
}
