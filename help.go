package main

import "io"

func usage(w io.Writer) {
	io.WriteString(w, "commands:\n")
	io.WriteString(w, "add <descriptor> [descriptor...] - add dice to the comparison set (e.g. add 2d6+1 1d8)\n")
	io.WriteString(w, "rm <index> - remove the dice at that list position\n")
	io.WriteString(w, "list - show the comparison set\n")
	io.WriteString(w, "table - expected value, median, variance, stddev, fail chance per dice\n")
	io.WriteString(w, "thresholds - P(X >= k) table for every dice\n")
	io.WriteString(w, "win - pairwise win probabilities\n")
	io.WriteString(w, "sim [n] - roll every dice n times and check against the engine; n defaults to the configured value\n")
	io.WriteString(w, "export - dump the analysis as YAML\n")
	io.WriteString(w, "clear - empty the comparison set\n")
	io.WriteString(w, "exit - leave the shell\n")
}
