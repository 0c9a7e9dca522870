package navigation

import "testing"

func TestSafeReturn_Login(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"/group", "/group"},
		{"  /group  ", "/group"},
		{"", "/"},
		{"group", "/"},
		{"https://evil.example.com/", "/"},
		{"//evil.example.com", "/"},
		{"/\\evil.example.com", "/"},
		{"/group\r\nSet-Cookie: x", "/"},
		{"/login", "/"},
		{"/logout", "/"},
		{"/signup", "/"},
		{"/reset-password/abc", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := SafeReturn(tt.raw, LoginReturn); got != tt.want {
				t.Errorf("SafeReturn(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSafeReturn_AllowedPrefix(t *testing.T) {
	opts := ReturnOptions{AllowedPrefix: "/group", Fallback: "/group"}

	if got := SafeReturn("/", opts); got != "/group" {
		t.Errorf("outside prefix: got %q", got)
	}
	if got := SafeReturn("/group", opts); got != "/group" {
		t.Errorf("inside prefix: got %q", got)
	}
}
