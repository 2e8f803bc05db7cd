package monitoring

import (
	"fmt"
	"log"
	"testing"
)

func TestSetLogger(t *testing.T) {
	t.Cleanup(func() { Logf = log.Printf })

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})
	Logf("recompute %s", "dataset")
	if got != "recompute dataset" {
		t.Fatalf("unexpected log output %q", got)
	}

	SetLogger(nil)
	Logf("ignored")
	if got != "recompute dataset" {
		t.Fatalf("expected no-op logger to drop output")
	}
}
