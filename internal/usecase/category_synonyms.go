package usecase

// SynonymEntry maps lowercase substrings of raw retailer labels onto one canonical subcategory
type SynonymEntry struct {
	Canonical string
	Synonyms  []string
}

// SynonymTable is an ordered list of entries. The first entry with a matching synonym wins.
type SynonymTable []SynonymEntry

// SynonymTables holds one table per retailer collection
type SynonymTables map[string]SynonymTable

// Categories returns the canonical categories declared for a retailer, in declaration order
func (t SynonymTables) Categories(retailer string) []string {
	table := t[retailer]
	seen := make(map[string]bool, len(table))
	categories := make([]string, 0, len(table))
	for _, entry := range table {
		if seen[entry.Canonical] {
			continue
		}
		seen[entry.Canonical] = true
		categories = append(categories, entry.Canonical)
	}
	return categories
}

// commonSynonyms is shared by every retailer and appended after the retailer-specific entries.
// Specific labels come before broad families ("queso" before "lacteo", "pasta dental" before "pasta").
var commonSynonyms = SynonymTable{
	{Canonical: "Carne de res", Synonyms: []string{"carne de res", "vacuno", "bovino", "carnes rojas"}},
	{Canonical: "Carne de cerdo", Synonyms: []string{"cerdo", "chancho", "porcino", "embutido", "jamon", "tocino"}},
	{Canonical: "Pollo", Synonyms: []string{"pollo", "aves", "pavo"}},
	{Canonical: "Pescados y mariscos", Synonyms: []string{"pescado", "marisco", "atun", "conservas de mar"}},
	{Canonical: "Quesos", Synonyms: []string{"queso"}},
	{Canonical: "Lácteos", Synonyms: []string{"lacteo", "leche", "yogur", "mantequilla"}},
	{Canonical: "Huevos", Synonyms: []string{"huevo"}},
	{Canonical: "Frutas y Verduras", Synonyms: []string{"fruta", "verdura", "hortaliza", "tuberculo"}},
	{Canonical: "Legumbres", Synonyms: []string{"legumbre", "menestra", "frejol", "lenteja", "garbanzo"}},
	{Canonical: "Limpieza y hogar", Synonyms: []string{"pasta dental", "crema dental", "cuidado personal", "higiene personal"}},
	{Canonical: "Cereales y granos", Synonyms: []string{"arroz", "cereal", "avena", "fideo", "pasta", "harina", "grano"}},
	{Canonical: "Panadería", Synonyms: []string{"panader", "pan de", "bolleria", "pasteleria"}},
	{Canonical: "Café y té", Synonyms: []string{"cafe", "infusion"}},
	{Canonical: "Bebidas", Synonyms: []string{"bebida", "gaseosa", "jugo", "agua", "cerveza", "vino", "licor"}},
	{Canonical: "Snacks y dulces", Synonyms: []string{"snack", "dulce", "chocolate", "golosina", "galleta", "confite"}},
	{Canonical: "Aceites y grasas", Synonyms: []string{"aceite", "margarina", "manteca"}},
	{Canonical: "Congelados", Synonyms: []string{"congelado"}},
	{Canonical: "Limpieza y hogar", Synonyms: []string{"limpieza", "detergente", "lejia", "hogar"}},
}

// retailerSynonyms holds the labels each store's catalog uses that the common table misses
var retailerSynonyms = map[string]SynonymTable{
	"tottus": {
		{Canonical: "Frutas y Verduras", Synonyms: []string{"frescos del campo"}},
		{Canonical: "Carne de res", Synonyms: []string{"carniceria"}},
	},
	"plazavea": {
		{Canonical: "Pollo", Synonyms: []string{"carnes, aves"}},
		{Canonical: "Panadería", Synonyms: []string{"panes"}},
	},
	"wong": {
		{Canonical: "Carne de cerdo", Synonyms: []string{"fiambreria"}},
		{Canonical: "Quesos", Synonyms: []string{"delicatessen"}},
		{Canonical: "Frutas y Verduras", Synonyms: []string{"mercado organico"}},
	},
	"metro": {
		{Canonical: "Cereales y granos", Synonyms: []string{"abarrotes"}},
	},
}

// DefaultSynonymTables returns the compiled-in tables for every known retailer
func DefaultSynonymTables() SynonymTables {
	tables := make(SynonymTables, len(retailerSynonyms))
	for _, retailer := range KnownRetailers() {
		specific := retailerSynonyms[retailer]
		table := make(SynonymTable, 0, len(specific)+len(commonSynonyms))
		table = append(table, specific...)
		table = append(table, commonSynonyms...)
		tables[retailer] = table
	}
	return tables
}
