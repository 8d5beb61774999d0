package bom

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inventia-erp/inventia/internal/stock"
)

func TestExplodeMultipliesPerUnit(t *testing.T) {
	lines := []Line{
		{MaterialID: 1, MaterialName: "Oak plank", QtyPerUnit: 3},
		{MaterialID: 2, MaterialName: "Brass hinge", QtyPerUnit: 0.5},
	}

	reqs := Explode(lines, 4)
	require.Len(t, reqs, 2)
	require.Equal(t, stock.TargetRef{Kind: stock.KindRawMaterial, ID: 1}, reqs[0].Target)
	require.Equal(t, int64(12), reqs[0].Qty)
	require.Equal(t, int64(2), reqs[1].Qty)
}

func TestExplodeTruncatesFractions(t *testing.T) {
	lines := []Line{{MaterialID: 1, MaterialName: "Glue", QtyPerUnit: 0.4}}

	// 0.4 * 7 = 2.8 truncates to 2.
	reqs := Explode(lines, 7)
	require.Len(t, reqs, 1)
	require.Equal(t, int64(2), reqs[0].Qty)

	// 0.4 * 2 = 0.8 truncates to 0 and the line drops out.
	require.Empty(t, Explode(lines, 2))
}

func TestExplodeEmptyBOM(t *testing.T) {
	require.Empty(t, Explode(nil, 10))
}

func TestDemands(t *testing.T) {
	reqs := []Requirement{
		{Target: stock.TargetRef{Kind: stock.KindRawMaterial, ID: 1}, Qty: 9},
	}
	demands := Demands(reqs)
	require.Len(t, demands, 1)
	require.Equal(t, int64(9), demands[0].Qty)
}
