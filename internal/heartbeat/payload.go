package heartbeat

import (
	"github.com/temirov/whatgitbranch/internal/repository"
)

// PrimaryKey aliases the primary repository's entry in a Payload.
const PrimaryKey = "primary"

// Entry is one repository in a Payload.
type Entry struct {
	HeadRef   string `json:"head_ref"`
	GitHubURL string `json:"github_url"`
}

// Payload maps repository keys, plus PrimaryKey when a primary exists, to entries.
type Payload map[string]Entry

// BuildPayload resolves every repository afresh and assembles the polling payload.
func BuildPayload(repositories []*repository.Repository, primary *repository.Repository) Payload {
	payload := make(Payload, len(repositories)+1)
	for _, tracked := range repositories {
		tracked.ResolveHeadRef()
		payload[tracked.Key()] = Entry{HeadRef: tracked.HeadRef(), GitHubURL: tracked.GitHubURL()}
	}
	if primary != nil {
		if entry, present := payload[primary.Key()]; present {
			payload[PrimaryKey] = entry
		}
	}
	return payload
}
