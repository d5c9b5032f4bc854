package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	if !strings.HasPrefix(ua, "matproj/"+Version+" ") {
		t.Errorf("UserAgent = %q", ua)
	}
	if !strings.Contains(ua, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Errorf("UserAgent %q lacks platform", ua)
	}
}

func TestString(t *testing.T) {
	if s := String(); !strings.Contains(s, Commit) {
		t.Errorf("String = %q", s)
	}
}
