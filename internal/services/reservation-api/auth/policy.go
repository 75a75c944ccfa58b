package auth

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	coreauth "github.com/NordCoder/Chateaux/internal/auth"
	"github.com/NordCoder/Chateaux/internal/services/reservation-api/httpx"
	"go.uber.org/zap"
)

type Access int

const (
	RequiresIdentity Access = iota
	Public
)

func (a Access) String() string {
	if a == Public {
		return "public"
	}
	return "requires-identity"
}

// Rule matches a method ("*" for any) and a slash separated path pattern.
// In patterns "*" is exactly one segment and "**" is any number of them.
type Rule struct {
	Method  string
	Pattern string
	Access  Access
}

type compiledRule struct {
	Rule
	segments []string
}

// Policy evaluates rules in declaration order; the first match decides.
// Requests no rule matches require an identity.
type Policy struct {
	rules []compiledRule
	log   *zap.Logger
}

func NewPolicy(log *zap.Logger, rules ...Rule) *Policy {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Policy{log: log.With(zap.String("component", "auth.policy"))}
	for _, r := range rules {
		if r.Method == "" {
			r.Method = "*"
		}
		p.rules = append(p.rules, compiledRule{Rule: r, segments: split(r.Pattern)})
	}
	return p
}

// DefaultRules is the route table of the API.
func DefaultRules() []Rule {
	return []Rule{
		{Method: "*", Pattern: "/api/auth/**", Access: Public},
		{Method: http.MethodPost, Pattern: "/api/user/register", Access: Public},
		{Method: http.MethodGet, Pattern: "/api/chateaus", Access: Public},
		{Method: http.MethodGet, Pattern: "/api/chateaus/*", Access: Public},
		{Method: http.MethodGet, Pattern: "/healthz", Access: Public},
		{Method: http.MethodGet, Pattern: "/metrics", Access: Public},
		{Method: http.MethodPost, Pattern: "/api/chateaus", Access: RequiresIdentity},
		{Method: http.MethodPut, Pattern: "/api/chateaus/**", Access: RequiresIdentity},
		{Method: http.MethodDelete, Pattern: "/api/chateaus/**", Access: RequiresIdentity},
		{Method: "*", Pattern: "/**", Access: RequiresIdentity},
	}
}

func (p *Policy) Decide(method, urlPath string) Access {
	segs := split(urlPath)
	for _, r := range p.rules {
		if r.Method != "*" && !strings.EqualFold(r.Method, method) {
			continue
		}
		if match(r.segments, segs) {
			return r.Access
		}
	}
	return RequiresIdentity
}

// Authorize returns coreauth.ErrUnauthenticated when the route needs an
// identity and r has none attached.
func (p *Policy) Authorize(r *http.Request) error {
	if p.Decide(r.Method, r.URL.Path) == Public {
		return nil
	}
	if id, ok := coreauth.IdentityFromCtx(r.Context()); ok && id.FromToken {
		return nil
	}
	return fmt.Errorf("%s %s: %w", r.Method, r.URL.Path, coreauth.ErrUnauthenticated)
}

func (p *Policy) Stage() httpx.Stage {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := p.Authorize(r); err != nil {
				policyDenied.Inc()
				p.log.Debug("access denied", zap.String("method", r.Method), zap.String("path", r.URL.Path))
				httpx.WriteError(w, r, nil, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func split(p string) []string {
	p = path.Clean("/" + p)
	if p == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(p, "/"), "/")
}

func match(pattern, segs []string) bool {
	for i, ps := range pattern {
		if ps == "**" {
			rest := pattern[i+1:]
			for j := i; j <= len(segs); j++ {
				if match(rest, segs[j:]) {
					return true
				}
			}
			return false
		}
		if i >= len(segs) {
			return false
		}
		if ps != "*" && ps != segs[i] {
			return false
		}
	}
	return len(pattern) == len(segs)
}
