/*
Package registry manages record type naming and field-set metadata for objectstore.

The registry system enables:
  - Stable record type names for partition keys ("{schema}_{type}")
  - Cached declared field sets used when reconstructing records from documents

Type Registry:
By default a record type is named after its Go type. A different name can be
registered, for example to keep partitions created by another service:

	registry.RegisterType[Widget]("DatabaseObjectTest")
	registry.TypeName[*Widget]() // "DatabaseObjectTest"

Field Registry:
DeclaredFields returns the json field names of a struct type, reserved fields
excluded:

	registry.DeclaredFields(reflect.TypeOf(Widget{})) // [bool_arg int_arg str_arg]

FieldsOf returns the same set with each field's Go type, so omitempty fields
can be filled with their zero value.

The registry is thread-safe and is usually populated during initialization.
*/
package registry
