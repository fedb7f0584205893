// Package logger is a thin structured-logging layer over zap.
//
// Code depends on the Logger interface and the field constructors in this
// package rather than on zap directly. Development builds log colourised
// console lines; production builds log JSON.
package logger
