package auth

import "strings"

// Check decides whether a user (as returned by Provider.CurrentUser) has
// admin access.
type Check func(user map[string]any) bool

// DomainCheck grants access to users whose email ends with one of the given
// domains. Domains may be given with or without a leading "@".
func DomainCheck(domains ...string) Check {
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		if !strings.HasPrefix(domain, "@") {
			domain = "@" + domain
		}
		normalized = append(normalized, strings.ToLower(domain))
	}

	return func(user map[string]any) bool {
		email := userEmail(user)
		if email == "" {
			return false
		}
		for _, domain := range normalized {
			if strings.HasSuffix(email, domain) {
				return true
			}
		}
		return false
	}
}

// EmailListCheck grants access to an explicit allowlist of addresses.
func EmailListCheck(emails ...string) Check {
	allowed := make(map[string]bool, len(emails))
	for _, email := range emails {
		allowed[strings.ToLower(email)] = true
	}

	return func(user map[string]any) bool {
		email := userEmail(user)
		return email != "" && allowed[email]
	}
}

// AnyCheck passes when any of the given checks passes.
func AnyCheck(checks ...Check) Check {
	return func(user map[string]any) bool {
		for _, check := range checks {
			if check(user) {
				return true
			}
		}
		return false
	}
}

func userEmail(user map[string]any) string {
	if user == nil {
		return ""
	}
	email, _ := user["email"].(string)
	return strings.ToLower(email)
}
