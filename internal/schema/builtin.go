package schema

import "github.com/shiftdb/shiftdb/internal/types"

const (
	chr = types.FieldTypeCharacter
	num = types.FieldTypeNumeric
	flt = types.FieldTypeFloat
	dat = types.FieldTypeDate
	mem = types.FieldTypeMemo
)

// Builtin returns the catalog of the standard Schichtplaner5 tables. The
// field lists and references follow the table files as shipped by the
// planner; deployments with custom tables load a Config instead.
func Builtin() *Catalog {
	c := NewCatalog()

	empl := NewTable("5EMPL",
		Field{"ID", num}, Field{"POSITION", num}, Field{"NUMBER", chr},
		Field{"NAME", chr}, Field{"FIRSTNAME", chr}, Field{"SHORTNAME", chr},
		Field{"SALUTATION", chr}, Field{"STREET", chr}, Field{"ZIP", chr},
		Field{"TOWN", chr}, Field{"PHONE", chr}, Field{"EMAIL", chr},
		Field{"PHOTO", chr}, Field{"FUNCTION", chr}, Field{"ARBITR1", chr},
		Field{"ARBITR2", chr}, Field{"ARBITR3", chr}, Field{"SEX", num},
		Field{"BIRTHDAY", dat}, Field{"EMPSTART", dat}, Field{"EMPEND", dat},
		Field{"CALCBASE", num}, Field{"HRSDAY", flt}, Field{"HRSWEEK", flt},
		Field{"HRSMONTH", flt}, Field{"HRSTOTAL", flt}, Field{"WORKDAYS", chr},
		Field{"DEDUCTHOL", num}, Field{"CFGLABEL", num}, Field{"BKLABEL", num},
		Field{"BKSCHED", num}, Field{"BOLD", num}, Field{"HIDE", num},
		Field{"NOTE1", chr}, Field{"NOTE2", chr}, Field{"NOTE3", chr},
		Field{"NOTE4", chr}, Field{"RESERVED", chr})
	empl.Required = []string{"ID", "NAME"}

	group := NewTable("5GROUP",
		Field{"ID", num}, Field{"NAME", chr}, Field{"SHORTNAME", chr},
		Field{"ARBITR", chr}, Field{"SUPERID", num}, Field{"POSITION", num},
		Field{"DAILYDEM", num}, Field{"CFGLABEL", num}, Field{"CBKLABEL", num},
		Field{"CBKSCHED", num}, Field{"BOLD", num}, Field{"HIDE", num},
		Field{"RESERVED", chr})
	group.Required = []string{"ID"}
	group.Relations = []Relation{
		{Name: "parent", Field: "SUPERID", Target: "5GROUP", TargetField: "ID", Type: ManyToOne},
	}

	shift := NewTable("5SHIFT",
		Field{"ID", num}, Field{"NAME", chr}, Field{"SHORTNAME", chr},
		Field{"POSITION", num}, Field{"COLORTEXT", num}, Field{"COLORBAR", num},
		Field{"COLORBK", num}, Field{"BOLD", num},
		Field{"STARTEND0", chr}, Field{"STARTEND1", chr}, Field{"STARTEND2", chr},
		Field{"STARTEND3", chr}, Field{"STARTEND4", chr}, Field{"STARTEND5", chr},
		Field{"STARTEND6", chr}, Field{"STARTEND7", chr},
		Field{"DURATION0", flt}, Field{"DURATION1", flt}, Field{"DURATION2", flt},
		Field{"DURATION3", flt}, Field{"DURATION4", flt}, Field{"DURATION5", flt},
		Field{"DURATION6", flt}, Field{"DURATION7", flt},
		Field{"NOEXTRA", num}, Field{"CATEGORY", num}, Field{"HIDE", num},
		Field{"RESERVED", chr})
	shift.Required = []string{"ID"}

	wopl := NewTable("5WOPL",
		Field{"ID", num}, Field{"NAME", chr}, Field{"SHORTNAME", chr},
		Field{"POSITION", num}, Field{"COLORTEXT", num}, Field{"COLORBAR", num},
		Field{"COLORBK", num}, Field{"BOLD", num}, Field{"HIDE", num},
		Field{"RESERVED", chr})
	wopl.Required = []string{"ID"}

	leavt := NewTable("5LEAVT",
		Field{"ID", num}, Field{"NAME", chr}, Field{"SHORTNAME", chr},
		Field{"POSITION", num}, Field{"COLORTEXT", num}, Field{"COLORBAR", num},
		Field{"COLORBK", num}, Field{"BOLD", num}, Field{"CHARGETYPE", num},
		Field{"CHARGEHRS", flt}, Field{"DEDUCTACT", num}, Field{"DEDUCTOVT", num},
		Field{"ENTITLED", num}, Field{"STDENTIT", flt}, Field{"CARRYFWD", num},
		Field{"COUNTALL", num}, Field{"IGNORED", num}, Field{"VALIDDAYS", chr},
		Field{"CATEGORY", num}, Field{"HIDE", num}, Field{"RESERVED", chr})
	leavt.Required = []string{"ID"}

	absen := NewTable("5ABSEN",
		Field{"ID", num}, Field{"EMPLOYEEID", num}, Field{"DATE", dat},
		Field{"LEAVETYPID", num}, Field{"TYPE", num}, Field{"INTERVAL", num},
		Field{"START", chr}, Field{"END", chr}, Field{"RESERVED", chr})
	absen.Required = []string{"ID", "EMPLOYEEID"}
	absen.Relations = []Relation{
		{Name: "employee", Field: "EMPLOYEEID", Target: "5EMPL", TargetField: "ID", Type: ManyToOne},
		{Name: "leave_type", Field: "LEAVETYPID", Target: "5LEAVT", TargetField: "ID", Type: ManyToOne},
	}

	spshi := NewTable("5SPSHI",
		Field{"ID", num}, Field{"EMPLOYEEID", num}, Field{"DATE", dat},
		Field{"NAME", chr}, Field{"SHORTNAME", chr}, Field{"SHIFTID", num},
		Field{"WORKPLACID", num}, Field{"TYPE", num}, Field{"COLORTEXT", num},
		Field{"COLORBAR", num}, Field{"COLORBK", num}, Field{"BOLD", num},
		Field{"STARTEND", chr}, Field{"DURATION", flt}, Field{"NOEXTRA", num},
		Field{"RESERVED", chr})
	spshi.Required = []string{"ID", "EMPLOYEEID"}
	spshi.Relations = []Relation{
		{Name: "employee", Field: "EMPLOYEEID", Target: "5EMPL", TargetField: "ID", Type: ManyToOne},
		{Name: "shift", Field: "SHIFTID", Target: "5SHIFT", TargetField: "ID", Type: ManyToOne},
		{Name: "workplace", Field: "WORKPLACID", Target: "5WOPL", TargetField: "ID", Type: ManyToOne},
	}

	mashi := NewTable("5MASHI",
		Field{"ID", num}, Field{"EMPLOYEEID", num}, Field{"DATE", dat},
		Field{"SHIFTID", num}, Field{"WORKPLACID", num}, Field{"TYPE", num},
		Field{"RESERVED", chr})
	mashi.Optional = true
	mashi.Relations = []Relation{
		{Name: "employee", Field: "EMPLOYEEID", Target: "5EMPL", TargetField: "ID", Type: ManyToOne},
		{Name: "shift", Field: "SHIFTID", Target: "5SHIFT", TargetField: "ID", Type: ManyToOne},
		{Name: "workplace", Field: "WORKPLACID", Target: "5WOPL", TargetField: "ID", Type: ManyToOne},
	}

	note := NewTable("5NOTE",
		Field{"ID", num}, Field{"EMPLOYEEID", num}, Field{"DATE", dat},
		Field{"TEXT1", mem}, Field{"TEXT2", mem})
	note.Required = []string{"ID"}
	note.Relations = []Relation{
		{Name: "employee", Field: "EMPLOYEEID", Target: "5EMPL", TargetField: "ID", Type: ManyToOne},
	}

	grasg := NewTable("5GRASG",
		Field{"ID", num}, Field{"EMPLOYEEID", num}, Field{"GROUPID", num},
		Field{"POSITION", num}, Field{"RESERVED", chr})
	grasg.Required = []string{"EMPLOYEEID", "GROUPID"}
	grasg.Relations = []Relation{
		{Name: "employee", Field: "EMPLOYEEID", Target: "5EMPL", TargetField: "ID", Type: ManyToOne},
		{Name: "group", Field: "GROUPID", Target: "5GROUP", TargetField: "ID", Type: ManyToOne},
	}

	leaen := NewTable("5LEAEN",
		Field{"ID", num}, Field{"EMPLOYEEID", num}, Field{"YEAR", num},
		Field{"LEAVETYPID", num}, Field{"ENTITLEMEN", flt}, Field{"REST", flt},
		Field{"INDAYS", num}, Field{"RESERVED", chr})
	leaen.Required = []string{"ID"}
	leaen.Relations = []Relation{
		{Name: "employee", Field: "EMPLOYEEID", Target: "5EMPL", TargetField: "ID", Type: ManyToOne},
		{Name: "leave_type", Field: "LEAVETYPID", Target: "5LEAVT", TargetField: "ID", Type: ManyToOne},
	}

	cycle := NewTable("5CYCLE",
		Field{"ID", num}, Field{"NAME", chr}, Field{"POSITION", num},
		Field{"SIZE", num}, Field{"UNIT", num}, Field{"HIDE", num},
		Field{"RESERVED", chr})
	cycle.Required = []string{"ID"}

	cyass := NewTable("5CYASS",
		Field{"ID", num}, Field{"EMPLOYEEID", num}, Field{"CYCLEID", num},
		Field{"START", chr}, Field{"END", chr}, Field{"ENTRANCE", chr},
		Field{"RESERVED", chr})
	cyass.Required = []string{"ID"}
	cyass.Relations = []Relation{
		{Name: "employee", Field: "EMPLOYEEID", Target: "5EMPL", TargetField: "ID", Type: ManyToOne},
		{Name: "cycle", Field: "CYCLEID", Target: "5CYCLE", TargetField: "ID", Type: ManyToOne},
	}

	holid := NewTable("5HOLID",
		Field{"ID", num}, Field{"DATE", dat}, Field{"NAME", chr},
		Field{"INTERVAL", num}, Field{"RESERVED", chr})
	holid.Required = []string{"ID"}

	user := NewTable("5USER",
		Field{"ID", num}, Field{"POSITION", num}, Field{"NAME", chr},
		Field{"DESCRIP", chr}, Field{"ADMIN", num}, Field{"DIGEST", chr},
		Field{"RIGHTS", chr}, Field{"CATEGORY", chr}, Field{"ADDEMPL", num},
		Field{"WDUTIES", num}, Field{"WNOTES", num}, Field{"RESERVED", chr})
	user.Required = []string{"ID"}

	book := NewTable("5BOOK",
		Field{"ID", num}, Field{"EMPLOYEEID", num}, Field{"DATE", dat},
		Field{"TYPE", num}, Field{"VALUE", flt}, Field{"NOTE", chr},
		Field{"RESERVED", chr})
	book.Optional = true
	book.Relations = []Relation{
		{Name: "employee", Field: "EMPLOYEEID", Target: "5EMPL", TargetField: "ID", Type: ManyToOne},
	}

	build := NewTable("5BUILD",
		Field{"ID", num}, Field{"BUILD", chr}, Field{"CHANGE", chr},
		Field{"DESCRIPTIO", chr})
	build.Optional = true

	xchar := NewTable("5XCHAR",
		Field{"ID", num}, Field{"NAME", chr}, Field{"POSITION", num},
		Field{"START", num}, Field{"END", num}, Field{"VALIDITY", num},
		Field{"VALIDDAYS", chr}, Field{"HOLRULE", num}, Field{"DATE", dat},
		Field{"HIDE", num}, Field{"RESERVED", chr})
	xchar.Optional = true

	over := NewTable("5OVER",
		Field{"ID", num}, Field{"EMPLOYEEID", num}, Field{"DATE", dat},
		Field{"HOURS", flt}, Field{"RESERVED", chr})
	over.Optional = true
	over.Relations = []Relation{
		{Name: "employee", Field: "EMPLOYEEID", Target: "5EMPL", TargetField: "ID", Type: ManyToOne},
	}

	cyent := NewTable("5CYENT",
		Field{"CYCLEEID", num}, Field{"INDEX", num}, Field{"SHIFTID", num},
		Field{"WORKPLACID", num}, Field{"RESERVED", chr})
	cyent.Required = []string{"CYCLEEID"}
	cyent.Relations = []Relation{
		{Name: "cycle", Field: "INDEX", Target: "5CYCLE", TargetField: "ID", Type: ManyToOne},
		{Name: "shift", Field: "SHIFTID", Target: "5SHIFT", TargetField: "ID", Type: ManyToOne},
		{Name: "workplace", Field: "WORKPLACID", Target: "5WOPL", TargetField: "ID", Type: ManyToOne},
	}

	cyexc := NewTable("5CYEXC",
		Field{"ID", num}, Field{"EMPLOYEEID", num}, Field{"CYCLEASSID", num},
		Field{"DATE", dat}, Field{"TYPE", chr}, Field{"RESERVED", chr})
	cyexc.Optional = true
	cyexc.Relations = []Relation{
		{Name: "employee", Field: "EMPLOYEEID", Target: "5EMPL", TargetField: "ID", Type: ManyToOne},
		{Name: "cycle_assignment", Field: "CYCLEASSID", Target: "5CYASS", TargetField: "ID", Type: ManyToOne},
	}

	emacc := NewTable("5EMACC",
		Field{"ID", num}, Field{"USERID", num}, Field{"EMPLOYEEID", num},
		Field{"ACCESSCODE", chr}, Field{"VALUE", chr})
	emacc.Required = []string{"ID"}
	emacc.Relations = []Relation{
		{Name: "user", Field: "USERID", Target: "5USER", TargetField: "ID", Type: ManyToOne},
		{Name: "employee", Field: "EMPLOYEEID", Target: "5EMPL", TargetField: "ID", Type: ManyToOne},
	}

	gracc := NewTable("5GRACC",
		Field{"ID", num}, Field{"USERID", num}, Field{"GROUPID", num},
		Field{"ACCESSCODE", chr}, Field{"VALUE", chr})
	gracc.Required = []string{"ID"}
	gracc.Relations = []Relation{
		{Name: "user", Field: "USERID", Target: "5USER", TargetField: "ID", Type: ManyToOne},
		{Name: "group", Field: "GROUPID", Target: "5GROUP", TargetField: "ID", Type: ManyToOne},
	}

	hoban := NewTable("5HOBAN",
		Field{"ID", num}, Field{"GROUPID", num}, Field{"START", dat},
		Field{"END", dat}, Field{"RESERVED", chr})
	hoban.Required = []string{"ID"}
	hoban.Relations = []Relation{
		{Name: "group", Field: "GROUPID", Target: "5GROUP", TargetField: "ID", Type: ManyToOne},
	}

	perio := NewTable("5PERIO",
		Field{"ID", num}, Field{"GROUPID", num}, Field{"START", chr},
		Field{"END", chr}, Field{"COLOR", num}, Field{"DESCRIPT", chr},
		Field{"RESERVED", chr})
	perio.Required = []string{"ID"}
	perio.Relations = []Relation{
		{Name: "group", Field: "GROUPID", Target: "5GROUP", TargetField: "ID", Type: ManyToOne},
	}

	restr := NewTable("5RESTR",
		Field{"ID", num}, Field{"EMPLOYEEID", num}, Field{"WEEKDAY", num},
		Field{"SHIFTID", num}, Field{"RESTRICT", num}, Field{"RESERVED", chr})
	restr.Required = []string{"ID"}
	restr.Relations = []Relation{
		{Name: "employee", Field: "EMPLOYEEID", Target: "5EMPL", TargetField: "ID", Type: ManyToOne},
		{Name: "shift", Field: "SHIFTID", Target: "5SHIFT", TargetField: "ID", Type: ManyToOne},
	}

	shdem := NewTable("5SHDEM",
		Field{"ID", num}, Field{"GROUPID", num}, Field{"WEEKDAY", num},
		Field{"SHIFTID", num}, Field{"WORKPLACID", num}, Field{"MIN", num},
		Field{"MAX", num}, Field{"RESERVED", chr})
	shdem.Required = []string{"ID"}
	shdem.Relations = []Relation{
		{Name: "group", Field: "GROUPID", Target: "5GROUP", TargetField: "ID", Type: ManyToOne},
		{Name: "shift", Field: "SHIFTID", Target: "5SHIFT", TargetField: "ID", Type: ManyToOne},
		{Name: "workplace", Field: "WORKPLACID", Target: "5WOPL", TargetField: "ID", Type: ManyToOne},
	}

	spdem := NewTable("5SPDEM",
		Field{"ID", num}, Field{"EMPLOYEEID", num}, Field{"SHIFTID", num},
		Field{"DEMAND", chr}, Field{"DATE", dat}, Field{"NOTES", chr})
	spdem.Required = []string{"ID"}
	spdem.Relations = []Relation{
		{Name: "employee", Field: "EMPLOYEEID", Target: "5EMPL", TargetField: "ID", Type: ManyToOne},
		{Name: "shift", Field: "SHIFTID", Target: "5SHIFT", TargetField: "ID", Type: ManyToOne},
	}

	usett := NewTable("5USETT",
		Field{"ID", num}, Field{"LOGIN", chr}, Field{"SPSHCAT", chr},
		Field{"OVERTCAT", chr}, Field{"ANOANAME", chr}, Field{"RESERVED", chr})
	usett.Optional = true

	dadem := NewTable("5DADEM",
		Field{"ID", num}, Field{"GROUPID", num}, Field{"WEEKDAY", num},
		Field{"SHIFTID", num}, Field{"WORKPLACID", num}, Field{"MIN", num},
		Field{"MAX", num}, Field{"RESERVED", chr})
	dadem.Optional = true
	dadem.Relations = []Relation{
		{Name: "group", Field: "GROUPID", Target: "5GROUP", TargetField: "ID", Type: ManyToOne},
		{Name: "shift", Field: "SHIFTID", Target: "5SHIFT", TargetField: "ID", Type: ManyToOne},
		{Name: "workplace", Field: "WORKPLACID", Target: "5WOPL", TargetField: "ID", Type: ManyToOne},
	}

	tables := []*Table{
		empl, group, shift, wopl, leavt, absen, spshi, mashi, note, grasg,
		leaen, cycle, cyass, holid, user, book, build, xchar, over, cyent,
		cyexc, emacc, gracc, hoban, perio, restr, shdem, spdem, usett, dadem,
	}
	for _, t := range tables {
		if err := c.Register(t); err != nil {
			panic(err)
		}
	}
	if err := c.Finish(); err != nil {
		panic(err)
	}
	return c
}
