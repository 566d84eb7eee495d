// Package session keeps search sessions in memory.
//
// Each session owns one grid built from a maze configuration. Sessions are
// addressed by a short ID derived from a random UUID; lookups ignore case.
// Nothing is written to disk, so sessions end with the process.
//
// Usage:
//
//	manager := session.NewManager()
//	s, err := manager.Create("", mazeConfig)
//	s, err = manager.Get(s.ID)
//	removed := manager.CleanupExpiredSessions(time.Hour)
package session
