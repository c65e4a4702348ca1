package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldDescriptorPrimitives(t *testing.T) {
	for letter, kind := range primitiveKinds {
		ft, n, err := ParseFieldDescriptor(string(letter), 0)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, kind, ft.Kind)
	}
}

func TestParseFieldDescriptorReference(t *testing.T) {
	ft, n, err := ParseFieldDescriptor("Ljava/lang/String;rest", 0)
	require.NoError(t, err)
	assert.Equal(t, KindReference, ft.Kind)
	assert.Equal(t, "java/lang/String", ft.ClassName)
	assert.Equal(t, len("Ljava/lang/String;"), n)
	assert.Equal(t, "Ljava/lang/String;", ft.String())
}

func TestParseFieldDescriptorArray(t *testing.T) {
	ft, n, err := ParseFieldDescriptor("[[I", 0)
	require.NoError(t, err)
	assert.Equal(t, KindArray, ft.Kind)
	assert.Equal(t, 2, ft.Dimensions)
	assert.Equal(t, 3, n)
	assert.Equal(t, "[[I", ft.String())
}

func TestParseFieldDescriptorUnterminatedReference(t *testing.T) {
	_, _, err := ParseFieldDescriptor("Ljava/lang/String", 0)
	require.Error(t, err)
}

func TestParseMethodDescriptor(t *testing.T) {
	mt, err := ParseMethodDescriptor("(IDLjava/lang/String;)[B")
	require.NoError(t, err)
	require.Len(t, mt.Parameters, 3)
	assert.Equal(t, KindInt, mt.Parameters[0].Kind)
	assert.Equal(t, KindDouble, mt.Parameters[1].Kind)
	assert.Equal(t, KindReference, mt.Parameters[2].Kind)
	assert.Equal(t, KindArray, mt.ReturnType.Kind)
	assert.Equal(t, 1+2+1, mt.ParameterSlotCount())
}

func TestParseMethodDescriptorVoid(t *testing.T) {
	mt, err := ParseMethodDescriptor("()V")
	require.NoError(t, err)
	assert.Empty(t, mt.Parameters)
	assert.Equal(t, KindVoid, mt.ReturnType.Kind)
}

func TestElementByteSize(t *testing.T) {
	cases := map[Kind]int{
		KindLong: 8, KindDouble: 8,
		KindChar: 2, KindShort: 2,
		KindByte: 1, KindBoolean: 1,
		KindInt: 4, KindFloat: 4, KindReference: 4, KindArray: 4,
	}
	for kind, want := range cases {
		ft := &FieldType{Kind: kind}
		assert.Equal(t, want, ft.ElementByteSize(), "kind=%v", kind)
	}
}
