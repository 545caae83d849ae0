// Package policy resolves the per-run inputs of the payload builder: the
// action valid for the rollout stage, the platform list, and the host-group
// scope. Every failure here is fatal and happens before any mutation.
package policy
