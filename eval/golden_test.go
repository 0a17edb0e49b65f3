package eval

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/ubmach/ubmach/build"
	"github.com/ubmach/ubmach/ir"
)

// TestOutcomeGolden pins the rendered outcome of a handful of programs,
// paths and diagnosis wording included.
func TestOutcomeGolden(t *testing.T) {
	cases := []struct {
		name string
		prog func(t *testing.T) *ir.Program
	}{
		{"clean_exit", cleanExitProgram},
		{"ref_confusion", func(t *testing.T) *ir.Program { return refConfusionProgram(t, 2) }},
		{"dead_local", deadLocalProgram},
		{"oob_store", oobStoreProgram},
	}

	var buf bytes.Buffer
	for _, tc := range cases {
		outcome, err := Run(tc.prog(t))
		require.NoError(t, err, tc.name)
		fmt.Fprintf(&buf, "%s: %s\n", tc.name, outcome)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"))
	g.Assert(t, "outcomes", buf.Bytes())
}

func cleanExitProgram(t *testing.T) *ir.Program {
	t.Helper()
	pb := build.NewProgramBuilder()
	fb := pb.DeclareFunction()
	x := fb.DeclareLocal(ir.U32)
	fb.StorageLive(x)
	fb.Assign(x, build.ConstInt(ir.U32, 1))
	fb.StorageDead(x)
	fb.Exit()
	entry, err := pb.FinishFunction(fb)
	require.NoError(t, err)
	prog, err := pb.FinishProgram(entry)
	require.NoError(t, err)
	return prog
}

func deadLocalProgram(t *testing.T) *ir.Program {
	t.Helper()
	pb := build.NewProgramBuilder()
	fb := pb.DeclareFunction()
	x := fb.DeclareLocal(ir.U8)
	fb.StorageLive(x)
	fb.StorageDead(x)
	fb.Assign(x, build.ConstInt(ir.U8, 2))
	fb.Exit()
	entry, err := pb.FinishFunction(fb)
	require.NoError(t, err)
	prog, err := pb.FinishProgram(entry)
	require.NoError(t, err)
	return prog
}

func oobStoreProgram(t *testing.T) *ir.Program {
	t.Helper()
	pb := build.NewProgramBuilder()
	fb := pb.DeclareFunction()
	a := fb.DeclareLocal(ir.U8)
	p := fb.DeclareLocal(ir.RefTo(ir.U64))
	fb.StorageLive(a)
	fb.StorageLive(p)
	fb.Assign(p, build.AddrOf(a, ir.RefTo(ir.U64)))
	fb.Assign(build.Deref(build.Load(p), ir.U64), build.ConstInt(ir.U64, 7))
	fb.Exit()
	entry, err := pb.FinishFunction(fb)
	require.NoError(t, err)
	prog, err := pb.FinishProgram(entry)
	require.NoError(t, err)
	return prog
}
