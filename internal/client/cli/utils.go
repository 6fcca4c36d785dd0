package cli

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/jobportal/internal/client/client"
	"github.com/dmitrijs2005/jobportal/internal/client/models"
	"github.com/dmitrijs2005/jobportal/internal/client/reset"
)

var errBadVerificationLink = errors.New("expected a link ending in /verify-account/<token>/<role>/<id>")

func userMessage(err error) string {
	return client.Message(err)
}

// parseVerificationLink extracts token, role and id from an account
// verification link or from a bare "<token>/<role>/<id>" path.
func parseVerificationLink(link string) (string, models.Role, string, error) {
	path := strings.TrimSpace(link)
	if u, err := url.Parse(path); err == nil && u.Path != "" {
		path = u.EscapedPath()
	}
	if i := strings.LastIndex(path, "/verify-account/"); i >= 0 {
		path = path[i+len("/verify-account/"):]
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return "", "", "", errBadVerificationLink
	}
	token, err := url.PathUnescape(parts[0])
	if err != nil {
		return "", "", "", errBadVerificationLink
	}
	role, err := models.ParseRole(parts[1])
	if err != nil {
		return "", "", "", err
	}
	return token, role, parts[2], nil
}

// parseResetToken accepts a bare token, a link with a token query parameter
// or a link whose last path segment is the token.
func parseResetToken(s string) string {
	s = strings.TrimSpace(s)
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return s
	}
	if t := u.Query().Get("token"); t != "" {
		return t
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	return segs[len(segs)-1]
}

func printRequirements(w io.Writer, r reset.Requirements) {
	items := []struct {
		ok   bool
		text string
	}{
		{r.MinLength, "at least 8 characters"},
		{r.Uppercase, "one uppercase letter"},
		{r.Lowercase, "one lowercase letter"},
		{r.Number, "one number"},
		{r.Match, "passwords match"},
	}
	for _, it := range items {
		mark := " "
		if it.ok {
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] %s\n", mark, it.text)
	}
}
