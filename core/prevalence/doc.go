// Package prevalence measures how widely desired domains are already seen
// across managed devices, so high-prevalence tools can be reviewed before a
// write-stage run. It never mutates remote state.
package prevalence
