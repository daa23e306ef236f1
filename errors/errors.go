/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common sentinel errors
var (
	// ErrConnection is returned when the backend cannot be reached
	ErrConnection = errors.New("could not connect to database")

	// ErrGet is returned when reading from a partition fails
	ErrGet = errors.New("error getting data")

	// ErrPut is returned when storing a document fails
	ErrPut = errors.New("error storing data")

	// ErrUpdate is returned when updating documents fails
	ErrUpdate = errors.New("error updating data")

	// ErrRemove is returned when removing documents fails
	ErrRemove = errors.New("error removing data")

	// ErrConfiguration is returned for an unknown backend name
	ErrConfiguration = errors.New("error configuring database")

	// ErrKeyNotFound is returned when a configuration key is absent
	ErrKeyNotFound = errors.New("configuration key not found")

	// ErrID is returned for a malformed identity
	ErrID = errors.New("error in the id format")

	// ErrSchema is returned when a partition does not exist
	ErrSchema = errors.New("error accessing non-existent schema")

	// ErrCriteria is returned when conditions cannot be translated
	ErrCriteria = errors.New("error in action criteria")

	// ErrData is returned when a required field is missing
	ErrData = errors.New("error in data")

	// ErrInheritance is returned when input is not a record
	ErrInheritance = errors.New("data must inherit from record")

	// ErrDistinctAttributes is returned when a stored document does not match a record type
	ErrDistinctAttributes = errors.New("distinct attributes")

	// ErrKOResult is returned when reconstructing a failed result
	ErrKOResult = errors.New("result is KO")
)

// Operation names the storage operation an error belongs to.
type Operation string

const (
	OpGet    Operation = "get"
	OpPut    Operation = "put"
	OpUpdate Operation = "update"
	OpRemove Operation = "remove"
)

// sentinel returns the error kind for an operation.
func (op Operation) sentinel() error {
	switch op {
	case OpGet:
		return ErrGet
	case OpPut:
		return ErrPut
	case OpUpdate:
		return ErrUpdate
	case OpRemove:
		return ErrRemove
	}
	return nil
}

// StorageError wraps a backend failure in the error kind of the operation
// that produced it (GetError, PutError, UpdateError or RemoveError).
type StorageError struct {
	Op        Operation
	Partition string
	Err       error
}

func (e *StorageError) Error() string {
	kind := e.Op.sentinel()
	if kind == nil {
		kind = fmt.Errorf("error in %s", e.Op)
	}
	if e.Partition == "" {
		return fmt.Sprintf("%s: %v", kind, e.Err)
	}
	return fmt.Sprintf("%s in %q: %v", kind, e.Partition, e.Err)
}

func (e *StorageError) Is(target error) bool {
	return target != nil && target == e.Op.sentinel()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ConnectionError represents a lost or failed backend connection
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	switch {
	case e.Endpoint != "" && e.Err != nil:
		return fmt.Sprintf("%s %s: %v", ErrConnection, e.Endpoint, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", ErrConnection, e.Err)
	case e.Endpoint != "":
		return fmt.Sprintf("%s %s", ErrConnection, e.Endpoint)
	}
	return ErrConnection.Error()
}

func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ConfigurationError represents an unknown backend name
type ConfigurationError struct {
	Backend string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: unknown backend %q", ErrConfiguration, e.Backend)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// KeyNotFoundError represents a missing configuration key
type KeyNotFoundError struct {
	Section string
	Key     string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s.%s", ErrKeyNotFound, e.Section, e.Key)
}

func (e *KeyNotFoundError) Is(target error) bool {
	return target == ErrKeyNotFound
}

// IDError represents an identity that cannot be encoded into a native key
type IDError struct {
	ID     string
	Reason string
}

func (e *IDError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrID, e.ID, e.Reason)
}

func (e *IDError) Is(target error) bool {
	return target == ErrID
}

// SchemaError represents access to a partition that does not exist
type SchemaError struct {
	Partition string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s %s", ErrSchema, e.Partition)
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// CriteriaError represents a condition that could not be translated
type CriteriaError struct {
	Field  string
	Reason string
	Err    error
}

func (e *CriteriaError) Error() string {
	msg := ErrCriteria.Error()
	if e.Field != "" {
		msg += fmt.Sprintf(" on field %q", e.Field)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CriteriaError) Is(target error) bool {
	return target == ErrCriteria
}

func (e *CriteriaError) Unwrap() error {
	return e.Err
}

// DataError represents a document missing a field the operation requires
type DataError struct {
	Field   string
	Message string
}

func (e *DataError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s for field %q: %s", ErrData, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", ErrData, e.Message)
}

func (e *DataError) Is(target error) bool {
	return target == ErrData
}

// InheritanceError represents input that is not a record or lacks the base record fields
type InheritanceError struct {
	Type    string
	Missing []string
}

func (e *InheritanceError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s: %s is missing %s", ErrInheritance, e.Type, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s: got %s", ErrInheritance, e.Type)
}

func (e *InheritanceError) Is(target error) bool {
	return target == ErrInheritance
}

// DistinctAttributesError represents a stored document whose fields differ from the record type
type DistinctAttributesError struct {
	Type     string
	Expected []string
	Got      []string
}

func (e *DistinctAttributesError) Error() string {
	return fmt.Sprintf("%s: %s declares [%s], document has [%s]",
		ErrDistinctAttributes, e.Type, strings.Join(e.Expected, ", "), strings.Join(e.Got, ", "))
}

func (e *DistinctAttributesError) Is(target error) bool {
	return target == ErrDistinctAttributes
}

// KOResultError represents an attempt to reconstruct records from a failed result
type KOResultError struct {
	Subject string
	Err     error
}

func (e *KOResultError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s for %s: %v", ErrKOResult, e.Subject, e.Err)
	}
	return fmt.Sprintf("%s for %s", ErrKOResult, e.Subject)
}

func (e *KOResultError) Is(target error) bool {
	return target == ErrKOResult
}

func (e *KOResultError) Unwrap() error {
	return e.Err
}

// Helper functions for creating errors

// NewStorageError wraps err in the error kind of op
func NewStorageError(op Operation, partition string, err error) error {
	return &StorageError{Op: op, Partition: partition, Err: err}
}

// NewConnectionError creates a new ConnectionError
func NewConnectionError(endpoint string, err error) error {
	return &ConnectionError{Endpoint: endpoint, Err: err}
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(backend string) error {
	return &ConfigurationError{Backend: backend}
}

// NewKeyNotFoundError creates a new KeyNotFoundError
func NewKeyNotFoundError(section, key string) error {
	return &KeyNotFoundError{Section: section, Key: key}
}

// NewIDError creates a new IDError
func NewIDError(id, reason string) error {
	return &IDError{ID: id, Reason: reason}
}

// NewSchemaError creates a new SchemaError
func NewSchemaError(partition string) error {
	return &SchemaError{Partition: partition}
}

// NewCriteriaError creates a new CriteriaError
func NewCriteriaError(field, reason string, err error) error {
	return &CriteriaError{Field: field, Reason: reason, Err: err}
}

// NewDataError creates a new DataError
func NewDataError(field, message string) error {
	return &DataError{Field: field, Message: message}
}

// NewInheritanceError creates a new InheritanceError
func NewInheritanceError(typ string, missing ...string) error {
	return &InheritanceError{Type: typ, Missing: missing}
}

// NewDistinctAttributesError creates a new DistinctAttributesError
func NewDistinctAttributesError(typ string, expected, got []string) error {
	return &DistinctAttributesError{Type: typ, Expected: expected, Got: got}
}

// NewKOResultError creates a new KOResultError
func NewKOResultError(subject string, err error) error {
	return &KOResultError{Subject: subject, Err: err}
}

// IsConnection checks if an error is a connection error
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsSchema checks if an error is a schema error
func IsSchema(err error) bool {
	return errors.Is(err, ErrSchema)
}

// IsCriteria checks if an error is a criteria error
func IsCriteria(err error) bool {
	return errors.Is(err, ErrCriteria)
}

// IsID checks if an error is an id error
func IsID(err error) bool {
	return errors.Is(err, ErrID)
}

// IsData checks if an error is a data error
func IsData(err error) bool {
	return errors.Is(err, ErrData)
}

// IsInheritance checks if an error is an inheritance error
func IsInheritance(err error) bool {
	return errors.Is(err, ErrInheritance)
}

// IsDistinctAttributes checks if an error is a field-set mismatch
func IsDistinctAttributes(err error) bool {
	return errors.Is(err, ErrDistinctAttributes)
}

// IsKOResult checks if an error comes from reconstructing a KO result
func IsKOResult(err error) bool {
	return errors.Is(err, ErrKOResult)
}

// IsKeyNotFound checks if an error is a missing configuration key
func IsKeyNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

// IsConfiguration checks if an error is an unknown backend error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
