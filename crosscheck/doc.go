// Package crosscheck compares the interpreter against wazero.
//
// A body is first simulated over value types to infer its results and the
// blocktype of every if. It is then re-emitted as a standard module with a
// single exported function and run on wazero's interpreter. The two
// outcomes, final stack or trap kind, are compared:
//
//	Agree        same values, or the same trap
//	Mismatch     the runs disagree
//	Unsupported  the body has no standard equivalent
//
// Bodies are unsupported when a branch reads operands from outside its
// block, when the arms of an if leave different types, when a block leaves
// more than one value, or when the local run traps for a reason the
// reference cannot reproduce (stack limits, operand type mismatches,
// unknown opcodes).
package crosscheck
