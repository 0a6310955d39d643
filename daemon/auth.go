// HTTP basic authentication against a password file.  The file has a sequence of lines, each
// with username:password syntax (blanks are significant, empty lines are ignored).

package daemon

import (
	"fmt"
	"os"
	"strings"
)

// MT: Immutable after creation
type authenticator struct {
	identities map[string]string
}

func readPasswords(filename string) (*authenticator, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string)
	for i, l := range strings.Split(string(bs), "\n") {
		s := strings.TrimSpace(l)
		if s == "" {
			continue
		}
		xs := strings.Split(s, ":")
		if len(xs) != 2 {
			return nil, fmt.Errorf("Password file has the wrong format (line %d)", i+1)
		}
		if _, found := m[xs[0]]; found {
			return nil, fmt.Errorf("Password file has duplicated user name (line %d)", i+1)
		}
		m[xs[0]] = xs[1]
	}
	return &authenticator{identities: m}, nil
}

func (a *authenticator) authenticate(user, pass string) bool {
	probe, found := a.identities[user]
	return found && probe == pass
}
