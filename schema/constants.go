package schema

import "maps"

// Custom string types for type safety.
type (
	// Direction tells whether a higher raw value is better (benefit) or worse (cost).
	Direction string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string

	// LabelKind names a denormalization table for integer-coded columns.
	LabelKind string
)

// All criterion directions supported.
const (
	Benefit Direction = "benefit"
	Cost    Direction = "cost"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All label tables supported for denormalized display.
const (
	NoLabels        LabelKind = ""
	PresenceLabels  LabelKind = "presence"  // 1 present, 0 absent
	YesNoLabels     LabelKind = "yesno"     // 1 yes, 0 no
	ConditionLabels LabelKind = "condition" // 1..4 scale
)

// Column names of the Surabaya housing dataset.
const (
	ColumnPropertyCode = "Kode Properti"
	ColumnCertificate  = "Sertifikat"
	ColumnDistrict     = "Kecamatan"
	ColumnPrice        = "Price"
	ColumnPriceScaled  = "Price_Sudah"
	ColumnBedrooms     = "Kamar Tidur"
	ColumnBathrooms    = "Kamar Mandi"
	ColumnLandArea     = "Luas Tanah"
	ColumnBuildingArea = "Luas Bangunan"
	ColumnPower        = "Daya Listrik"
	ColumnLivingRoom   = "Ruang Tamu"
	ColumnFloors       = "Jumlah Lantai"
	ColumnInternet     = "Terjangkau Internet"
	ColumnCondition    = "Kondisi Properti"
)

// Certificate types known to the dataset, in display order.
var DefaultCertificates = []string{
	"SHM - Sertifikat Hak Milik",
	"HGB - Hak Guna Bangunan",
	"HP - Hak Pakai",
	"Lainnya (PPJB,Girik,Adat,dll)",
}

// DefaultDisplayColumns lists the attribute columns shown next to each ranked item.
var DefaultDisplayColumns = []string{
	ColumnDistrict,
	ColumnPrice,
	ColumnBedrooms,
	ColumnBathrooms,
	ColumnLandArea,
	ColumnBuildingArea,
	ColumnCertificate,
	ColumnPower,
	ColumnLivingRoom,
	ColumnFloors,
	ColumnInternet,
	ColumnCondition,
}

// UnknownLabel is rendered for codes outside a label table.
const UnknownLabel = "-"

// ValidDirections lists all valid criterion directions.
var ValidDirections = map[Direction]struct{}{
	Benefit: {},
	Cost:    {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid cache backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidLabelKinds lists all valid label tables.
var ValidLabelKinds = map[LabelKind]struct{}{
	NoLabels:        {},
	PresenceLabels:  {},
	YesNoLabels:     {},
	ConditionLabels: {},
}

// labelTables holds the canonical code to label maps.
var labelTables = map[LabelKind]map[int]string{
	PresenceLabels: {
		1: "present",
		0: "absent",
	},
	YesNoLabels: {
		1: "yes",
		0: "no",
	},
	ConditionLabels: {
		1: "needs renovation",
		2: "standard",
		3: "renovated",
		4: "new",
	},
}

// LabelsFor returns a copy of the label table for the given kind, or nil.
func LabelsFor(kind LabelKind) map[int]string {
	return maps.Clone(labelTables[kind])
}

// IdealMode selects how TOPSIS picks the ideal points from the weighted matrix.
type IdealMode string

// All ideal modes supported.
const (
	// IdealsByDirection flips the extremum for cost criteria (positive ideal is the column minimum).
	IdealsByDirection IdealMode = "direction" // default
	// IdealsByNormalized takes the column maximum as the positive ideal for every column,
	// reading the SAW-inverted cost columns as benefit. Under this rule the cheaper and
	// larger of two listings ranks first.
	IdealsByNormalized IdealMode = "normalized"
)

// ValidIdealModes lists all valid ideal modes.
var ValidIdealModes = map[IdealMode]struct{}{
	IdealsByDirection:  {},
	IdealsByNormalized: {},
}
