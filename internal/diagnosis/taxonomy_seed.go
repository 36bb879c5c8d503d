package diagnosis

// seedMisconceptions is the built-in misconception taxonomy for the
// default topic graph.
var seedMisconceptions = []Misconception{
	// Variables and expressions
	{
		ID:          "var-assign-equals",
		Topics:      []string{"variables", "expressions", "conditionals"},
		Label:       "Assignment vs equality",
		Description: "Confuses assignment (=) with comparison (==)",
		Examples:    []string{"if x = 5:", "while done = false"},
	},
	{
		ID:          "var-copy-reference",
		Topics:      []string{"variables", "collections", "classes"},
		Label:       "Copy vs reference",
		Description: "Expects assigning a list or object to copy it rather than alias it",
		Examples:    []string{"b = a; b.append(1) expected to leave a unchanged"},
	},
	{
		ID:          "expr-precedence",
		Topics:      []string{"expressions"},
		Label:       "Operator precedence",
		Description: "Evaluates operators strictly left to right, ignoring precedence",
		Examples:    []string{"2 + 3 * 4 evaluated as 20", "not a or b read as not (a or b)"},
	},
	{
		ID:          "expr-integer-division",
		Topics:      []string{"expressions", "variables"},
		Label:       "Integer division",
		Description: "Expects integer division to produce a fraction, or forgets truncation",
		Examples:    []string{"7 / 2 in integer arithmetic expected to be 3.5"},
	},

	// Control flow
	{
		ID:          "loop-off-by-one",
		Topics:      []string{"loops", "collections", "algorithms"},
		Label:       "Off by one",
		Description: "Loop bounds include or exclude one element too many",
		Examples:    []string{"range(1, n) used to visit n items", "i <= len(xs)"},
	},
	{
		ID:          "loop-mutate-while-iterating",
		Topics:      []string{"loops", "collections"},
		Label:       "Mutating while iterating",
		Description: "Removes or adds elements to a collection while looping over it",
		Examples:    []string{"for x in xs: xs.remove(x)"},
	},
	{
		ID:          "cond-else-binding",
		Topics:      []string{"conditionals", "control-flow"},
		Label:       "Branch coverage",
		Description: "Assumes exactly one branch of independent if statements runs",
		Examples:    []string{"two ifs treated as if/else"},
	},

	// Functions
	{
		ID:          "fn-print-vs-return",
		Topics:      []string{"functions"},
		Label:       "Print vs return",
		Description: "Prints a value inside a function instead of returning it",
		Examples:    []string{"def area(r): print(3.14 * r * r)"},
	},
	{
		ID:          "fn-scope-leak",
		Topics:      []string{"functions", "variables"},
		Label:       "Variable scope",
		Description: "Expects local variables to be visible outside the function that defines them",
		Examples:    []string{"using a loop counter defined inside a helper from the caller"},
	},
	{
		ID:          "rec-missing-base",
		Topics:      []string{"recursion"},
		Label:       "Missing base case",
		Description: "Recursive call without a reachable base case",
		Examples:    []string{"def f(n): return n * f(n - 1)"},
	},

	// Data
	{
		ID:          "str-immutable",
		Topics:      []string{"strings"},
		Label:       "String mutation",
		Description: "Expects string methods to modify the string in place",
		Examples:    []string{"s.upper() expected to change s"},
	},
	{
		ID:          "col-index-base",
		Topics:      []string{"collections", "strings"},
		Label:       "Zero-based indexing",
		Description: "Treats the first element as index 1",
		Examples:    []string{"xs[1] used for the first element"},
	},
	{
		ID:          "err-swallow",
		Topics:      []string{"errors"},
		Label:       "Swallowed errors",
		Description: "Catches an error and continues as if the operation succeeded",
		Examples:    []string{"except: pass around a file read"},
	},
	{
		ID:          "cls-shared-state",
		Topics:      []string{"classes"},
		Label:       "Class vs instance state",
		Description: "Stores per-instance data in a class-level attribute shared by all instances",
		Examples:    []string{"class Cart: items = []"},
	},
	{
		ID:          "alg-sorted-precondition",
		Topics:      []string{"algorithms"},
		Label:       "Binary search precondition",
		Description: "Applies binary search to unsorted input",
		Examples:    []string{"binary search on [5, 1, 4]"},
	},
}
