package version

// Version is the release version stamped into log output
const Version = "1.0.0"
