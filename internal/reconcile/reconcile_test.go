package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/proposal-reconciler/internal/config"
	"github.com/ginjaninja78/proposal-reconciler/internal/csvparser"
	"github.com/ginjaninja78/proposal-reconciler/internal/types"
)

func stage(text string, kind types.DatasetKind) Staging {
	return BuildStaging(csvparser.Decode(text, ';'), kind, config.DefaultColumns())
}

func requireDecimal(t *testing.T, want string, got *decimal.Decimal) {
	t.Helper()
	require.NotNil(t, got)
	assert.True(t, got.Equal(decimal.RequireFromString(want)), "want %s, got %s", want, got)
}

// =============================================================================
// STAGING
// =============================================================================

func TestBuildStagingKeepsEveryRow(t *testing.T) {
	s := stage("Cod da Proposta;Chassi;Loja\nA1;9BW1;L1\n;9BW2;L2\n   ;;\nA2\n", types.KindSales)

	require.Len(t, s.Rows, 4)
	for i, row := range s.Rows {
		assert.Equal(t, i+2, row.Line)
		assert.Equal(t, types.KindSales, row.Kind)
	}

	require.NotNil(t, s.Rows[0].ProposalCode)
	assert.Equal(t, "A1", *s.Rows[0].ProposalCode)
	require.NotNil(t, s.Rows[0].Chassis)
	assert.Equal(t, "9BW1", *s.Rows[0].Chassis)
	assert.Equal(t, []string{"A1", "9BW1", "L1"}, s.Rows[0].Fields)

	assert.Nil(t, s.Rows[1].ProposalCode)
	assert.Nil(t, s.Rows[2].ProposalCode)
	assert.Nil(t, s.Rows[3].Chassis, "short row")

	assert.Equal(t, []types.StructuralError{
		{Kind: types.KindSales, Line: 3, Message: types.MissingKeyMessage},
		{Kind: types.KindSales, Line: 4, Message: types.MissingKeyMessage},
	}, s.Errors)
}

func TestBuildStagingChassisOnlyForSales(t *testing.T) {
	s := stage("Cod da Proposta;Chassi\nA1;9BW1\n", types.KindItems)
	require.Len(t, s.Rows, 1)
	assert.Nil(t, s.Rows[0].Chassis)
}

func TestBuildStagingKeyVariants(t *testing.T) {
	headers := []string{"Cód. da Proposta", "CODIGO DA PROPOSTA", "C�d da Proposta", "Cod da Proposta (ID)"}
	for _, h := range headers {
		s := stage(h+";x\nK1;1\n", types.KindItems)
		require.Len(t, s.Rows, 1, h)
		require.NotNil(t, s.Rows[0].ProposalCode, h)
		assert.Equal(t, "K1", *s.Rows[0].ProposalCode, h)
		assert.Empty(t, s.Errors, h)
	}
}

func TestBuildStagingWithoutKeyColumn(t *testing.T) {
	s := stage("Loja;Banco\nL1;B1\nL2;B2\n", types.KindSales)
	assert.Len(t, s.Rows, 2)
	assert.Len(t, s.Errors, 2)
}

func TestBuildStagingEmpty(t *testing.T) {
	s := stage("", types.KindSales)
	assert.NotNil(t, s.Rows)
	assert.Empty(t, s.Rows)
	assert.Empty(t, s.Errors)

	s = BuildStaging(nil, types.KindItems, config.DefaultColumns())
	assert.Empty(t, s.Rows)
}

// =============================================================================
// PROPOSALS
// =============================================================================

func TestNormalizeProposalsFirstRowWins(t *testing.T) {
	sales := stage("Cod da Proposta;Loja;CNPJ Loja;Banco;Valor Financiado;Situação\n"+
		"A1;Loja X;11.222.333/0001-44;Banco Y;1.500,00;Aprovada\n"+
		"A1;Loja Z;;Banco W;9,99;Cancelada\n"+
		";Loja Q;;;;\n"+
		"B2;;;;abc;\n", types.KindSales)

	props := NormalizeProposals(sales, config.DefaultColumns())
	require.Len(t, props, 2)

	a1 := props["A1"]
	require.NotNil(t, a1)
	assert.Equal(t, "A1", a1.ProposalCode)
	assert.Equal(t, "Loja X", *a1.Store)
	assert.Equal(t, "11.222.333/0001-44", *a1.StoreTaxID)
	assert.Equal(t, "Banco Y", *a1.Bank)
	assert.Equal(t, "Aprovada", *a1.Status)
	requireDecimal(t, "1500", a1.FinancedAmount)
	assert.NotNil(t, a1.Items)
	assert.Empty(t, a1.Items)

	b2 := props["B2"]
	require.NotNil(t, b2)
	assert.Nil(t, b2.Store)
	assert.Nil(t, b2.FinancedAmount, "unparseable amount")
}

func TestNormalizeProposalsKeyFallsBackToStagedKey(t *testing.T) {
	cols := config.DefaultColumns()
	cols.StagingKey = []string{"pedido"}

	sales := BuildStaging(csvparser.Decode("Pedido;Loja\nP9;L1\n", ';'), types.KindSales, cols)
	props := NormalizeProposals(sales, cols)

	require.Contains(t, props, "P9")
}

// =============================================================================
// ITEMS
// =============================================================================

func TestAttachItemsSinglePass(t *testing.T) {
	sales := stage("Cod da Proposta;Loja\nA1;L1\nA2;L2\n", types.KindSales)
	props := NormalizeProposals(sales, config.DefaultColumns())

	items := stage("Cod da Proposta;Tipo;Código;Fornecedor;Descrição;Quantidade;Valor Unitário;Cortesia\n"+
		"A1;Seguro;S01;Fornec;Seguro auto;1;1.200,50;N\n"+
		"B2;Seguro;S02;;;;;S\n"+
		";Acessorio;X;;;;;\n"+
		"A1;Acessorio;AC1;;Tapete;2;150,00; s \n"+
		"B2;Seguro;S03;;;;;\n", types.KindItems)

	pending := AttachItems(items, props, config.DefaultColumns())

	a1 := props["A1"]
	require.Len(t, a1.Items, 2)
	assert.Empty(t, props["A2"].Items)

	first := a1.Items[0]
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "A1", first.ProposalCode)
	assert.Equal(t, "Seguro", *first.Type)
	assert.Equal(t, "Fornec", *first.Supplier)
	assert.Equal(t, "Seguro auto", *first.Description)
	requireDecimal(t, "1", first.Quantity)
	requireDecimal(t, "1200.50", first.UnitValue)
	assert.False(t, first.Courtesy)

	second := a1.Items[1]
	assert.Equal(t, 5, second.Line)
	assert.Equal(t, "Tapete", *second.Description)
	assert.True(t, second.Courtesy, "marker is trimmed and case-insensitive")

	assert.Equal(t, []types.PendingItem{
		{Kind: types.KindItems, Line: 3, ProposalCode: "B2", Message: types.PendingItemMessage},
		{Kind: types.KindItems, Line: 6, ProposalCode: "B2", Message: types.PendingItemMessage},
	}, pending)
}

func TestAttachItemsEveryKeyedRowAttachedOrPending(t *testing.T) {
	sales := stage("Cod da Proposta\nA\nB\nC\n", types.KindSales)
	props := NormalizeProposals(sales, config.DefaultColumns())

	items := stage("Cod da Proposta;Tipo\nA;1\nZ;2\nB;3\nA;4\nY;5\n;6\n", types.KindItems)
	pending := AttachItems(items, props, config.DefaultColumns())

	attached := 0
	for _, p := range props {
		attached += len(p.Items)
	}

	keyed := 0
	for _, row := range items.Rows {
		if row.ProposalCode != nil {
			keyed++
		}
	}

	assert.Equal(t, 3, attached)
	assert.Len(t, pending, 2)
	assert.Equal(t, keyed, attached+len(pending))
}

func TestAttachItemsNoCourtesyColumn(t *testing.T) {
	props := NormalizeProposals(stage("Cod da Proposta\nA\n", types.KindSales), config.DefaultColumns())
	AttachItems(stage("Cod da Proposta;Tipo\nA;s\n", types.KindItems), props, config.DefaultColumns())

	require.Len(t, props["A"].Items, 1)
	assert.False(t, props["A"].Items[0].Courtesy)
}

// =============================================================================
// REPORT
// =============================================================================

func TestReconcileScenario(t *testing.T) {
	salesText := "Cod da Proposta;Loja;Banco;Valor Financiado\nA1;Loja X;Banco Y;1.500,00\n"
	itemsText := "Cod da Proposta;Tipo;Cortesia\nA1;Seguro;N\nB2;Seguro;S\n"

	result := Reconcile(salesText, itemsText, "utf-8", config.DefaultReconcile())

	assert.Equal(t, "utf-8", result.Encoding)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Proposals, 1)
	a1 := result.Proposals[0]
	assert.Equal(t, "A1", a1.ProposalCode)
	assert.Equal(t, "Loja X", *a1.Store)
	assert.Equal(t, "Banco Y", *a1.Bank)
	requireDecimal(t, "1500.00", a1.FinancedAmount)
	require.Len(t, a1.Items, 1)
	assert.Equal(t, "Seguro", *a1.Items[0].Type)
	assert.False(t, a1.Items[0].Courtesy)

	require.Len(t, result.Pending, 1)
	assert.Equal(t, "B2", result.Pending[0].ProposalCode)
	assert.Equal(t, 3, result.Pending[0].Line)

	assert.Len(t, result.SalesRaw, 1)
	assert.Len(t, result.ItemsRaw, 2)
}

func TestReconcileBlankKeySalesRow(t *testing.T) {
	salesText := "Cod da Proposta;Loja\nA1;L1\n;L2\nA3;L3\n"

	result := Reconcile(salesText, "", "utf-8", config.DefaultReconcile())

	assert.Equal(t, []types.StructuralError{
		{Kind: types.KindSales, Line: 3, Message: types.MissingKeyMessage},
	}, result.Errors)

	require.Len(t, result.Proposals, 2)
	assert.Equal(t, "A1", result.Proposals[0].ProposalCode)
	assert.Equal(t, "A3", result.Proposals[1].ProposalCode)
	assert.Equal(t, "L3", *result.Proposals[1].Store)
	assert.Len(t, result.SalesRaw, 3)
}

func TestReconcileErrorsSalesThenItems(t *testing.T) {
	result := Reconcile(
		"Cod da Proposta\nA\n\n;\n",
		"Cod da Proposta\n;\nA\n",
		"utf-8", config.DefaultReconcile())

	assert.Equal(t, []types.StructuralError{
		{Kind: types.KindSales, Line: 3, Message: types.MissingKeyMessage},
		{Kind: types.KindItems, Line: 2, Message: types.MissingKeyMessage},
	}, result.Errors)
}

func TestReconcileProposalsSortedByKey(t *testing.T) {
	result := Reconcile("Cod da Proposta\nb\nB\n10\n9\na\n", "", "", config.DefaultReconcile())

	var keys []string
	for _, p := range result.Proposals {
		keys = append(keys, p.ProposalCode)
	}
	assert.Equal(t, []string{"10", "9", "B", "a", "b"}, keys)
}

func TestReconcileEmptyInputs(t *testing.T) {
	result := Reconcile("", "", "utf-8", config.Reconcile{Columns: config.DefaultColumns()})

	assert.NotNil(t, result.SalesRaw)
	assert.NotNil(t, result.ItemsRaw)
	assert.NotNil(t, result.Proposals)
	assert.NotNil(t, result.Pending)
	assert.NotNil(t, result.Errors)
	assert.Equal(t, types.Summary{}, Summarize(result))
}

func TestReconcileIsDeterministic(t *testing.T) {
	sales := "Cod da Proposta;Loja\nC;1\nA;2\nB;3\nA;4\n"
	items := "Cod da Proposta;Tipo\nB;x\nQ;y\nA;z\n"

	first := Reconcile(sales, items, "utf-8", config.DefaultReconcile())
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Reconcile(sales, items, "utf-8", config.DefaultReconcile()))
	}
}

func TestSummarize(t *testing.T) {
	result := Reconcile(
		"Cod da Proposta\nA\nB\n;\n",
		"Cod da Proposta\nA\nA\nB\nZ\n",
		"utf-8", config.DefaultReconcile())

	assert.Equal(t, types.Summary{
		SalesRows:        3,
		ItemsRows:        4,
		StructuralErrors: 1,
		PendingItems:     1,
		Proposals:        2,
		AttachedItems:    3,
	}, Summarize(result))

	assert.Equal(t, types.Summary{}, Summarize(nil))
}

// =============================================================================
// SEARCH
// =============================================================================

func TestFilterProposals(t *testing.T) {
	result := Reconcile(
		"Cod da Proposta;Loja;Banco;Situação\nP1;Loja Centro;Banco Azul;Aprovada\nP2;Loja Norte;Banco Verde;Pendente\nX3;;;\n",
		"", "utf-8", config.DefaultReconcile())

	codes := func(ps []types.Proposal) []string {
		out := []string{}
		for _, p := range ps {
			out = append(out, p.ProposalCode)
		}
		return out
	}

	assert.Equal(t, []string{"P1", "P2", "X3"}, codes(FilterProposals(result.Proposals, "")))
	assert.Equal(t, []string{"P1", "P2", "X3"}, codes(FilterProposals(result.Proposals, "   ")))
	assert.Equal(t, []string{"P1"}, codes(FilterProposals(result.Proposals, "centro")))
	assert.Equal(t, []string{"P2"}, codes(FilterProposals(result.Proposals, "VERDE")))
	assert.Equal(t, []string{"P1", "P2"}, codes(FilterProposals(result.Proposals, "p")))
	assert.Equal(t, []string{"P1"}, codes(FilterProposals(result.Proposals, "aprovada")))
	assert.Empty(t, FilterProposals(result.Proposals, "nothing"))
}

func TestFindProposal(t *testing.T) {
	result := Reconcile("Cod da Proposta;Loja\nP1;L1\nP2;L2\n", "", "utf-8", config.DefaultReconcile())

	p, ok := FindProposal(result, "P2")
	require.True(t, ok)
	assert.Equal(t, "L2", *p.Store)

	_, ok = FindProposal(result, "p2")
	assert.False(t, ok, "exact match only")

	_, ok = FindProposal(nil, "P1")
	assert.False(t, ok)
}
