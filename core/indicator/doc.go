// Package indicator builds the indicator records this project manages in the
// remote inventory.
//
// Every record carries the project's fixed source identifier and tag set, which
// is how managed records are told apart from indicators created by anyone else.
// Records are rebuilt from scratch on every run; an update is a copy of the
// desired record with the matched remote id attached.
package indicator
