package contracts

import "fmt"

// BuildKey identifies a build across topics.
func BuildKey(owner, repo string, buildID int64) string {
	return fmt.Sprintf("%s/%s#%d", owner, repo, buildID)
}
