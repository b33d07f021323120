package solana

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/ybbus/jsonrpc"
)

func TestParse(t *testing.T) {
	d := json.NewDecoder(bytes.NewBufferString(`{"InstructionError":[2,{"Custom":3}]}`))

	var raw interface{}
	assert.NoError(t, d.Decode(&raw))

	e, err := ParseTransactionError(raw)
	assert.NoError(t, err)

	assert.Equal(t, TransactionErrorInstructionError, e.ErrorKey())
	assert.NotNil(t, e.InstructionError())
	assert.Equal(t, 2, e.InstructionError().Index)
	assert.Equal(t, InstructionErrorCustom, e.InstructionError().ErrorKey())
	assert.NotNil(t, e.InstructionError().CustomError())
	assert.Equal(t, CustomError(3), *e.InstructionError().CustomError())

	d = json.NewDecoder(bytes.NewBufferString(`{"InstructionError":[0,"InvalidArgument"]}`))
	assert.NoError(t, d.Decode(&raw))

	e, err = ParseTransactionError(raw)
	assert.NoError(t, err)

	assert.Equal(t, TransactionErrorInstructionError, e.ErrorKey())
	assert.NotNil(t, e.InstructionError())
	assert.Equal(t, 0, e.InstructionError().Index)
	assert.Equal(t, InstructionErrorInvalidArgument, e.InstructionError().ErrorKey())

	d = json.NewDecoder(bytes.NewBufferString(`"DuplicateSignature"`))
	assert.NoError(t, d.Decode(&raw))

	e, err = ParseTransactionError(raw)
	assert.NoError(t, err)

	assert.Equal(t, TransactionErrorDuplicateSignature, e.ErrorKey())
	assert.Nil(t, e.InstructionError())
}

func TestNew(t *testing.T) {
	d := json.NewDecoder(bytes.NewBufferString(`"DuplicateSignature"`))
	var expected interface{}
	assert.NoError(t, d.Decode(&expected))

	e := NewTransactionError(TransactionErrorDuplicateSignature)
	assert.Equal(t, expected, e.raw)

	e = NewInstructionTransactionError(0, errors.New(string(InstructionErrorInvalidArgument)))
	encoded, err := e.JSONString()
	assert.NoError(t, err)
	assert.JSONEq(t, `{"InstructionError":[0,"InvalidArgument"]}`, encoded)
	assert.Equal(t, InstructionErrorInvalidArgument, e.InstructionError().ErrorKey())

	e = NewInstructionTransactionError(2, CustomError(3))
	encoded, err = e.JSONString()
	assert.NoError(t, err)
	assert.JSONEq(t, `{"InstructionError":[2,{"Custom":3}]}`, encoded)
	assert.Equal(t, TransactionErrorInstructionError, e.ErrorKey())
	assert.Equal(t, CustomError(3), *e.InstructionError().CustomError())
}

func TestParseRPCError(t *testing.T) {
	parsed, err := ParseRPCError(nil)
	assert.NoError(t, err)
	assert.Nil(t, parsed)

	parsed, err = ParseRPCError(&jsonrpc.RPCError{
		Code:    -32002,
		Message: "Transaction simulation failed: Error processing Instruction 0: custom program error: 0xbc4",
		Data: map[string]interface{}{
			"err": map[string]interface{}{
				"InstructionError": []interface{}{json.Number("0"), map[string]interface{}{"Custom": json.Number("3012")}},
			},
			"logs": []interface{}{
				"Program HC2oqz2p6DEWfrahenqdq2moUcga9c9biqRBcdK3XKU1 invoke [1]",
				"Program log: AnchorError caused by account: prereq.",
			},
		},
	})
	assert.NoError(t, err)
	assert.NotNil(t, parsed)
	assert.Equal(t, TransactionErrorInstructionError, parsed.ErrorKey())
	assert.Equal(t, CustomError(3012), *parsed.InstructionError().CustomError())
	assert.Len(t, parsed.Logs, 2)

	parsed, err = ParseRPCError(&jsonrpc.RPCError{
		Code: -32002,
		Data: map[string]interface{}{"err": "BlockhashNotFound"},
	})
	assert.NoError(t, err)
	assert.Equal(t, TransactionErrorBlockhashNotFound, parsed.ErrorKey())
	assert.Nil(t, parsed.InstructionError())

	// No transaction error attached.
	parsed, err = ParseRPCError(&jsonrpc.RPCError{Code: -32602, Data: map[string]interface{}{}})
	assert.NoError(t, err)
	assert.Nil(t, parsed)

	_, err = ParseRPCError(&jsonrpc.RPCError{Code: -32602})
	assert.Error(t, err)
}

func TestCustomError(t *testing.T) {
	assert.Equal(t, "custom program error: 0xbc4", CustomError(3012).Error())
}

func TestParseJSONNumber(t *testing.T) {
	tc := []interface{}{
		"1",
		1.0,
		json.Number("1"),
	}
	for i, c := range tc {
		v, err := parseJSONNumber(c)
		assert.NoError(t, err)
		assert.Equal(t, 1, v, i)
	}
}
