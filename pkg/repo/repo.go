// Package repo turns free-form user input into a GitHub repository reference.
//
// [Parse] accepts the URL shapes people paste into a search box:
//
//	https://github.com/owner/repo
//	github.com/owner/repo.git
//	https://www.github.com/owner/repo/tree/main/docs
//	git@github.com:owner/repo.git
//
// Only the first two path segments matter. Anything that does not carry a
// GitHub host marker followed by an owner and a repository segment fails with
// an [errors.ErrCodeInvalidInput] error; the parser never guesses.
package repo

import (
	"regexp"
	"strings"

	"github.com/matzehuels/depview/pkg/errors"
)

// Host markers that may precede the owner/repo path. Order matters: the SSH
// form must be tried before the plain host so "git@github.com:" is not
// mistaken for a host followed by a port.
var hostMarkers = []string{
	"git@github.com:",
	"github.com/",
}

// Regex patterns for GitHub name validation.
var (
	// GitHub usernames/orgs: 1-39 alphanumeric or hyphen, not starting with hyphen
	validOwner = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{0,38}$`)
	// GitHub repo names: 1-100 alphanumeric, hyphen, underscore, or dot
	validRepo = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,100}$`)
)

// Reference identifies a hosted repository. Both fields are non-empty and
// contain no path separators.
type Reference struct {
	Owner string
	Repo  string
}

// String returns the "owner/repo" form.
func (r Reference) String() string {
	return r.Owner + "/" + r.Repo
}

// URL returns the canonical HTTPS URL of the repository.
func (r Reference) URL() string {
	return "https://github.com/" + r.String()
}

// Parse extracts an owner/repo pair from raw user input.
func Parse(input string) (Reference, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return Reference{}, errors.New(errors.ErrCodeInvalidInput, "repository URL is empty")
	}

	path, ok := afterHost(s)
	if !ok {
		return Reference{}, errors.New(errors.ErrCodeInvalidInput, "not a GitHub URL: %q", s)
	}

	// Query strings and fragments never belong to owner/repo.
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	segments := strings.SplitN(path, "/", 3)
	if len(segments) < 2 {
		return Reference{}, errors.New(errors.ErrCodeInvalidInput, "missing repository in %q", s)
	}

	ref := Reference{
		Owner: segments[0],
		Repo:  strings.TrimSuffix(segments[1], ".git"),
	}
	if err := Validate(ref); err != nil {
		return Reference{}, err
	}
	return ref, nil
}

// ParseRef parses the short "owner/repo" form used on the command line.
func ParseRef(ref string) (Reference, error) {
	parts := strings.Split(strings.TrimSpace(ref), "/")
	if len(parts) != 2 {
		return Reference{}, errors.New(errors.ErrCodeInvalidInput, "invalid repo format %q: use owner/repo", ref)
	}
	r := Reference{Owner: parts[0], Repo: strings.TrimSuffix(parts[1], ".git")}
	if err := Validate(r); err != nil {
		return Reference{}, err
	}
	return r, nil
}

// ParseAny accepts either a URL or the short "owner/repo" form.
// The short form is only tried when the input carries no host marker.
func ParseAny(input string) (Reference, error) {
	if _, ok := afterHost(strings.TrimSpace(input)); ok {
		return Parse(input)
	}
	return ParseRef(input)
}

// Validate checks both parts of a reference against GitHub naming rules.
func Validate(r Reference) error {
	if r.Owner == "" {
		return errors.New(errors.ErrCodeInvalidInput, "owner is required")
	}
	if !validOwner.MatchString(r.Owner) {
		return errors.New(errors.ErrCodeInvalidInput, "invalid owner %q: must be 1-39 alphanumeric characters or hyphens, cannot start with hyphen", r.Owner)
	}
	if r.Repo == "" {
		return errors.New(errors.ErrCodeInvalidInput, "repo is required")
	}
	if !validRepo.MatchString(r.Repo) {
		return errors.New(errors.ErrCodeInvalidInput, "invalid repo %q: must be 1-100 alphanumeric characters, hyphens, underscores, or dots", r.Repo)
	}
	return nil
}

// afterHost returns the text following the first GitHub host marker.
// The marker must start the input or follow a non-name character, so
// "notgithub.com/x/y" is rejected while "https://www.github.com/x/y" passes.
func afterHost(s string) (string, bool) {
	lower := strings.ToLower(s)
	for _, marker := range hostMarkers {
		i := strings.Index(lower, marker)
		if i < 0 {
			continue
		}
		if i > 0 && isNameChar(rune(lower[i-1])) {
			continue
		}
		return s[i+len(marker):], true
	}
	return "", false
}

func isNameChar(r rune) bool {
	return r == '-' || r == '_' || ('a' <= r && r <= 'z') || ('0' <= r && r <= '9')
}
