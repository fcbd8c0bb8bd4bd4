// Package committee defines validator identities and the registry of the
// current validator set. Membership is decided by an external authority; this
// package only records the list it is given and the history of rotations.
package committee
