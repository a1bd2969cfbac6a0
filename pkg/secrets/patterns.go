package secrets

// ValuePattern is a named regular expression matching a secret value.
type ValuePattern struct {
	Name    string
	Pattern string
}

// DefaultFieldPatterns returns glob patterns for option and environment
// variable names that hold secrets. Names are matched in snake_case.
func DefaultFieldPatterns() []string {
	var patterns []string
	for _, word := range []string{
		"password", "passwd", "secret", "token", "apikey", "api_key",
		"access_key", "private_key", "credential", "bearer", "oauth", "jwt", "session_id", "sessionid",
		"ssn", "cc_number", "card_number", "cvv", "cvc", "pincode",
	} {
		patterns = append(patterns, "*"+word+"*")
	}
	// exact names, and names ending in key
	return append(patterns, "*key", "auth", "authorization", "session", "pin")
}

// DefaultValuePatterns returns patterns of well-known credential formats.
func DefaultValuePatterns() []ValuePattern {
	return []ValuePattern{
		{"AWS Access Key ID", `AKIA[0-9A-Z]{16}`},
		{"Google API Key", `AIza[0-9A-Za-z\-_]{35}`},
		{"GitHub Personal Access Token", `ghp_[0-9a-zA-Z]{36}`},
		{"GitHub App Token", `gh[us]_[0-9a-zA-Z]{36}`},
		{"GitLab Personal Access Token", `glpat-[0-9a-zA-Z\-_]{20}`},
		{"Slack Token", `xox[baprs]-[0-9a-zA-Z]{10,48}`},
		{"NPM Token", `\bnpm_[a-zA-Z0-9]{36}\b`},
		{"PyPI Token", `\bpypi-[A-Za-z0-9\-_]{32,}\b`},
		{"Secret Key", `[sS][kK]_[a-zA-Z0-9_]{10,}`},
		{"JWT", `eyJ[A-Za-z0-9_=-]+\.eyJ[A-Za-z0-9_=-]+\.[A-Za-z0-9_.+/=-]*`},
		{"Bearer Token", `Bearer\s+[A-Za-z0-9\-._~+/]+=*`},
		{"Basic Auth", `Basic\s+[A-Za-z0-9+/]+=*`},
		{"Private Key", `-----BEGIN [A-Z ]*PRIVATE KEY( BLOCK)?-----`},
		{"Password in URL", `[a-zA-Z][a-zA-Z0-9+.-]{1,9}://[^/\s:@]{1,64}:[^/\s:@]{1,64}@`},
	}
}
