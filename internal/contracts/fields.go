package contracts

// Field is a logical statement field name
type Field string

// Income statement fields
const (
	FieldIncomeTax    Field = "income_tax"
	FieldPreTaxProfit Field = "pre_tax_profit"
	FieldOpProfit     Field = "op_profit" // EBIT 대용
	FieldCOGS         Field = "cogs"
	FieldNetProfit    Field = "net_profit"
)

// Balance sheet fields
const (
	FieldEquity          Field = "equity"
	FieldShortBorrow     Field = "short_borrow"
	FieldNonCurLiaDue1Y  Field = "non_cur_lia_due_1y"
	FieldLongBorrow      Field = "long_borrow"
	FieldBondsPayable    Field = "bonds_payable"
	FieldReceivables     Field = "receivables"
	FieldPrepayments     Field = "prepayments"
	FieldInventory       Field = "inventory"
	FieldNotesReceivable Field = "notes_receivable"
	FieldPayables        Field = "payables"
	FieldAdvances        Field = "advances"
	FieldNotesPayable    Field = "notes_payable"
	FieldEmployeePayable Field = "employee_payable"
	FieldTaxesPayable    Field = "taxes_payable"
)

// Cash flow fields
const (
	FieldOperatingCF Field = "operating_cf"
	FieldCapex       Field = "capex"
)

// FieldAliases maps each logical field to the source column names it may
// appear under, descriptive name first. Resolved once per row.
// ⭐ SSOT: 컬럼 별칭 테이블은 여기서만
var FieldAliases = map[Field][]string{
	FieldIncomeTax:    {"所得税费用", "IncomeTax"},
	FieldPreTaxProfit: {"利润总额", "ProfitBefTax"},
	FieldOpProfit:     {"营业利润", "EBIT", "OpProfit"},
	FieldCOGS:         {"营业成本", "OpCost"},
	FieldNetProfit:    {"净利润", "归属于母公司净利润", "ParNetProfit"},

	FieldEquity:          {"归属于母公司所有者权益", "ParOwnEquity"},
	FieldShortBorrow:     {"短期借款", "ShortBorrow"},
	FieldNonCurLiaDue1Y:  {"一年内到期非流动负债", "NonCurLia1Y"},
	FieldLongBorrow:      {"长期借款", "LTBorrow"},
	FieldBondsPayable:    {"应付债券", "BondPay"},
	FieldReceivables:     {"应收账款", "AcctRecNet"},
	FieldPrepayments:     {"预付账款", "PrepayNet"},
	FieldInventory:       {"存货", "InventNet"},
	FieldNotesReceivable: {"应收票据", "NotesRecNet"},
	FieldPayables:        {"应付账款", "AcctPay"},
	FieldAdvances:        {"预收账款", "AdvFromCust"},
	FieldNotesPayable:    {"应付票据", "NotesPay"},
	FieldEmployeePayable: {"应付职工薪酬", "EmpBenefitPay"},
	FieldTaxesPayable:    {"应交税费", "TaxPay"},

	FieldOperatingCF: {"经营活动现金流量净额", "NetOpCF"},
	FieldCapex:       {"购建固定资产、无形资产和其他长期资产支付的现金", "AssetPurchase"},
}

var statementFields = map[StatementKind][]Field{
	StatementIncome: {
		FieldIncomeTax, FieldPreTaxProfit, FieldOpProfit, FieldCOGS, FieldNetProfit,
	},
	StatementBalance: {
		FieldEquity, FieldShortBorrow, FieldNonCurLiaDue1Y, FieldLongBorrow, FieldBondsPayable,
		FieldReceivables, FieldPrepayments, FieldInventory, FieldNotesReceivable,
		FieldPayables, FieldAdvances, FieldNotesPayable, FieldEmployeePayable, FieldTaxesPayable,
	},
	StatementCashFlow: {
		FieldOperatingCF, FieldCapex,
	},
}

// FieldsFor returns the logical fields carried by a statement kind
func FieldsFor(kind StatementKind) []Field {
	return statementFields[kind]
}

// InvestedCapitalFields are the balance items summed into the ROC denominator
var InvestedCapitalFields = []Field{
	FieldEquity, FieldShortBorrow, FieldNonCurLiaDue1Y, FieldLongBorrow, FieldBondsPayable,
}

// WorkingCapitalAssets and WorkingCapitalLiabilities make up net operating working capital
var (
	WorkingCapitalAssets = []Field{
		FieldReceivables, FieldPrepayments, FieldInventory, FieldNotesReceivable,
	}
	WorkingCapitalLiabilities = []Field{
		FieldPayables, FieldAdvances, FieldNotesPayable, FieldEmployeePayable, FieldTaxesPayable,
	}
)
