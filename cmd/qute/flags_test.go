package main

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/qute/pkg/qbf"
)

func TestParseHeuristicRecognizesImplementedKinds(t *testing.T) {
	cases := map[string]qbf.HeuristicKind{
		"vmtf":  qbf.HeuristicVMTF,
		"VSIDS": qbf.HeuristicVSIDS,
		"sgdb":  qbf.HeuristicSGDB,
	}
	for s, want := range cases {
		got, ok := parseHeuristic(s)
		assert.True(t, ok, "parseHeuristic(%q) should be ok", s)
		assert.Equal(t, want, got)
	}
}

func TestParseHeuristicRejectsUnimplementedVariants(t *testing.T) {
	for _, s := range []string{"vmtf-block", "vmtf-ooo", "vmtf-deplearn", "bogus"} {
		_, ok := parseHeuristic(s)
		assert.False(t, ok, "parseHeuristic(%q) should not be ok", s)
	}
}

func TestOptionsFromFlagsRejectsUnimplementedHeuristic(t *testing.T) {
	var fv flagValues
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	bindFlags(fs, &fv)
	require.NoError(t, fs.Parse([]string{"--heuristic", "vmtf-ooo"}))

	_, err := optionsFromFlags(qbf.DefaultOptions(), &fv, fs)
	assert.Error(t, err)
}

func TestOptionsFromFlagsAcceptsImplementedHeuristic(t *testing.T) {
	var fv flagValues
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	bindFlags(fs, &fv)
	require.NoError(t, fs.Parse([]string{"--heuristic", "vsids"}))

	opts, err := optionsFromFlags(qbf.DefaultOptions(), &fv, fs)
	require.NoError(t, err)
	assert.Equal(t, qbf.HeuristicVSIDS, opts.Heuristic)
}
