package storage

// FfprobePath is the resolved ffprobe binary, set during startup dependency
// resolution. Empty means "use whatever PATH finds".
var FfprobePath string
