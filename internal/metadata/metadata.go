package metadata

import "github.com/rs/zerolog"

var (
	Version    = "freshest"
	CommitHash = "n/a"
	BuildTime  = "n/a"
)

type Build struct{}

func (Build) MarshalZerologObject(e *zerolog.Event) {
	e.Str("v", Version).
		Str("commit_hash", CommitHash).
		Str("build_time", BuildTime)
}

func (Build) String() string {
	return Version + " (" + CommitHash + ", built " + BuildTime + ")"
}
