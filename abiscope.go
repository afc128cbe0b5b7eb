// Package abiscope decodes and encodes Ethereum contract calls and logs
// from a JSON interface descriptor.
//
// An interface descriptor lists the functions, events and errors of a
// contract. abiscope derives their selectors, resolves calldata and logs
// back to the entries that produced them, and collects user input for
// encoding new calls:
//   - Build a SelectorTable from the descriptor
//   - Decode calldata, return data and receipt logs into plain values
//   - Accumulate arguments in an immutable InputTree and encode them
//
// # Basic Usage
//
//	table, err := abiscope.BuildJSON(erc20JSON)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	call, err := table.DecodeCallHex("0xa9059cbb...")
//	switch {
//	case abiscope.IsUnresolved(err):
//	    // not one of ours, show the raw bytes
//	case err != nil:
//	    log.Fatal(err)
//	}
//	to, _ := call.Args.Get("to")
//
// # Collecting Input
//
// An InputTree is shaped by a function's inputs. Every edit returns a new
// tree, so earlier snapshots stay valid:
//
//	entry, _ := table.Method("transfer")
//	tree := abiscope.NewInputTree(entry.Inputs)
//	tree, _ = tree.Set(abiscope.Path{abiscope.FieldStep("to")}, "0x...dead")
//	tree, _ = tree.SetAmount(abiscope.Path{abiscope.FieldStep("amount")}, "1.5", abiscope.Ether)
//	data, err := table.EncodeCall("transfer", tree.Flatten())
//
// Array rows are addressed by RowID rather than position, so removing a row
// never shifts the values of the rows after it.
//
// # Values
//
// Decoded values are Scalar, Array or Tuple. Integers keep full 256-bit
// precision and encode to JSON as decimal strings; addresses and byte
// strings are lower-case 0x hex.
//
// # Executing Calls
//
// A Contract binds an address and a table to a Transport. Execute sends
// view and pure functions as read-only calls and decodes their output;
// other functions are submitted as transactions and their receipt logs are
// decoded. RPCTransport covers the read-only case over JSON-RPC.
package abiscope
