// Package domain defines the page-activation types shared by the activator and
// the gate, plus the interfaces each side depends on.
package domain
