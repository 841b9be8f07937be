package hostfs

// DefaultRoot is the host root when the tool runs directly on the host.
const DefaultRoot = "/"

// TempPrefix is the name prefix of in-flight temp files. Directory listings
// should ignore entries carrying it.
const TempPrefix = ".team-login-"
