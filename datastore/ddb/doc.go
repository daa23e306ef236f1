/*
Package ddb provides a DynamoDB implementation of the storage port.

Each partition is a table with the hash key _id (string), created on demand by
the first put with on-demand billing. Reads, updates and removes on a missing
table fail with a SchemaError.

Endpoint:

	dynamodb://us-east-1?endpoint=http://localhost:8000&access_key=x&secret_key=y

Without access_key and secret_key the default AWS credential chain applies,
including the AWS_* variables a .env file provides.

Conditions:
Conditions become a scan FilterExpression with #nN name and :vN value
placeholders:

	=  =      !=  <>     <  <     <=  <=     >  >     >=  >=
	in        #n0 IN (:v0, :v1)
	not in    NOT (#n0 IN (:v0, :v1))

A native filter is a FilterExpression fragment over attribute names, such as
attribute_exists(str_arg), and is appended in parentheses.

Scans retry throttling and transient server errors. Updates and removes are
applied item by item.
*/
package ddb
