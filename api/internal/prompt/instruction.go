package prompt

// DefaultInstruction asks the model for a QuestionFile. The worked example
// mirrors the placeholder shown before the first conversion.
const DefaultInstruction = `
Você é um especialista em extrair dados de imagens e formatá-los em JSON.
Analise a imagem fornecida, que contém uma pergunta e várias alternativas de resposta.
Extraia as informações e formate-as estritamente de acordo com o schema JSON fornecido.

O formato de saída para cada pergunta deve ser:
{ "id": "nome_curto", "statement": "Pergunta exibida", "options": [ { "id": "A", "text": "Opção 1" }, { "id": "B", "text": "Opção 2" } ] }

Instruções para preenchimento:
1. "id": Crie um id curto, em snake_case (ex.: pergunta_unica), baseado no conteúdo da pergunta.
2. "statement": Escreva a frase exata da pergunta que os alunos verão.
3. "options": Liste cada alternativa. Para cada uma:
   - "id": Use o identificador curto da opção (ex: A, B, C, 1, 2, 3...).
   - "text": Escreva o texto completo da opção.

Retorne o resultado como um array de perguntas dentro de um objeto principal com a chave "questions".
Exemplo de saída para uma única pergunta:
` + Example

// Example is the placeholder QuestionFile.
const Example = `{
  "questions": [
    {
      "id": "pergunta_da_semana",
      "statement": "Qual iniciativa devemos priorizar?",
      "options": [
        { "id": "A", "text": "Treinamentos" },
        { "id": "B", "text": "Infraestrutura" },
        { "id": "C", "text": "Suporte aos alunos" }
      ]
    }
  ]
}`
