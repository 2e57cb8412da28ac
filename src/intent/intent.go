// Package intent builds the external actions a build view can trigger.
package intent

import (
	"fmt"
	"net/url"
	"strings"

	"travisjr/src/build"
)

// DefaultWebURL is the GitHub web root used for commit and repository links.
const DefaultWebURL = "https://github.com"

// Kind identifies an activation intent.
type Kind string

const (
	KindViewCommit       Kind = "view_commit"
	KindViewRepository   Kind = "view_repository"
	KindContactCommitter Kind = "contact_committer"
)

// Intent is a request for the presentation layer to open something outside
// the application.
type Intent struct {
	Kind Kind
	// URL is the link to open. For contact intents it is a mailto: URL.
	URL string

	// Email fields, only set for KindContactCommitter.
	Recipient string
	Subject   string
	Body      string
}

// Builder assembles intents against a web root.
type Builder struct {
	webURL string
}

// NewBuilder uses webURL, or DefaultWebURL when empty.
func NewBuilder(webURL string) *Builder {
	if webURL == "" {
		webURL = DefaultWebURL
	}
	return &Builder{webURL: strings.TrimRight(webURL, "/")}
}

// ViewCommit opens the commit the build ran against.
func (b *Builder) ViewCommit(info *build.BuildInfo) (Intent, error) {
	if info == nil || info.Commit() == "" {
		return Intent{}, fmt.Errorf("build has no commit")
	}
	return Intent{
		Kind: KindViewCommit,
		URL:  fmt.Sprintf("%s/%s/%s/commit/%s", b.webURL, url.PathEscape(info.Owner()), url.PathEscape(info.Repo()), url.PathEscape(info.Commit())),
	}, nil
}

// ViewRepository opens the repository page.
func (b *Builder) ViewRepository(owner, repo string) (Intent, error) {
	if owner == "" || repo == "" {
		return Intent{}, fmt.Errorf("owner and repo are required")
	}
	return Intent{
		Kind: KindViewRepository,
		URL:  fmt.Sprintf("%s/%s/%s", b.webURL, url.PathEscape(owner), url.PathEscape(repo)),
	}, nil
}

// ContactCommitter drafts an email to the committer of the build.
func (b *Builder) ContactCommitter(info *build.BuildInfo) (Intent, error) {
	if info == nil || info.CommitterEmail() == "" {
		return Intent{}, fmt.Errorf("build has no committer email")
	}

	subject := fmt.Sprintf("Build %s on %s/%s", info.Number(), info.Owner(), info.Repo())
	body := Greeting(info.CommitterName())

	q := url.Values{}
	q.Set("subject", subject)
	q.Set("body", body)
	mailto := url.URL{
		Scheme:   "mailto",
		Opaque:   info.CommitterEmail(),
		RawQuery: strings.ReplaceAll(q.Encode(), "+", "%20"),
	}

	return Intent{
		Kind:      KindContactCommitter,
		URL:       mailto.String(),
		Recipient: info.CommitterEmail(),
		Subject:   subject,
		Body:      body,
	}, nil
}

// Greeting opens an email with the first token of name.
func Greeting(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "Hi, "
	}
	return "Hi " + fields[0] + ", "
}
